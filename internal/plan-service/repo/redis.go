package repo

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/bankroll-tracker/internal/bankroll/leverage"
)

// Redis persiste o plano de alavancagem, um registro JSON por usuário/device.
type Redis struct{ r *redis.Client }

func NewRedis(r *redis.Client) *Redis { return &Redis{r: r} }

func keyPlan(userID string) string { return "leverage_plan:" + userID }

// LoadPlan carrega o plano salvo do usuário. O bool indica se existia plano.
func (p *Redis) LoadPlan(ctx context.Context, userID string) (leverage.Plan, bool, error) {
	b, err := p.r.Get(ctx, keyPlan(userID)).Bytes()
	if err == redis.Nil {
		return leverage.Plan{}, false, nil
	}
	if err != nil {
		return leverage.Plan{}, false, err
	}

	var plan leverage.Plan
	if err := json.Unmarshal(b, &plan); err != nil {
		return leverage.Plan{}, false, err
	}
	// Persistência antiga pode ter array divergente de Days.
	plan.Normalize()
	return plan, true, nil
}

// SavePlan grava o plano do usuário, sem expiração.
func (p *Redis) SavePlan(ctx context.Context, userID string, plan leverage.Plan) error {
	plan.Normalize()
	b, err := json.Marshal(plan)
	if err != nil {
		return err
	}
	return p.r.Set(ctx, keyPlan(userID), b, 0).Err()
}

// ForUser adapta o repositório à interface de persistência do store do core,
// amarrando o userID na instância.
func (p *Redis) ForUser(userID string) leverage.Persister {
	return userPersister{repo: p, userID: userID}
}

type userPersister struct {
	repo   *Redis
	userID string
}

func (u userPersister) Load(ctx context.Context) (leverage.Plan, bool, error) {
	return u.repo.LoadPlan(ctx, u.userID)
}

func (u userPersister) Save(ctx context.Context, plan leverage.Plan) error {
	return u.repo.SavePlan(ctx, u.userID, plan)
}
