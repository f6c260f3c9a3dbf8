package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/radieske/bankroll-tracker/internal/bankroll/lifecycle"
	"github.com/radieske/bankroll-tracker/internal/bankroll/money"
)

// Postgres implementa operações de apostas e banca em banco
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidStatus = errors.New("invalid status")
)

// GetOrCreateBank retorna as configurações de banca de um usuário, criando o
// registro zerado se não existir. Usa transação para garantir atomicidade.
func (p *Postgres) GetOrCreateBank(ctx context.Context, userID, defaultCurrency string) (BankSettings, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return BankSettings{}, err
	}
	defer tx.Rollback()

	var b BankSettings
	b.UserID = userID
	err = tx.QueryRowContext(ctx,
		`SELECT cash_cents, currency, version, updated_at FROM bank_settings WHERE user_id=$1`,
		userID).Scan(&b.CashCents, &b.Currency, &b.Version, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		b.Currency = defaultCurrency
		b.Version = 1
		b.UpdatedAt = time.Now()
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO bank_settings(user_id, cash_cents, currency, version, updated_at) VALUES($1,0,$2,1,$3)`,
			userID, defaultCurrency, b.UpdatedAt); err != nil {
			return BankSettings{}, err
		}
	} else if err != nil {
		return BankSettings{}, err
	}

	if err = tx.Commit(); err != nil {
		return BankSettings{}, err
	}
	return b, nil
}

// SetCash sobrescreve o caixa da banca (ajuste manual do usuário) e registra a
// operação na auditoria. Garante lock pessimista na linha da banca.
func (p *Postgres) SetCash(ctx context.Context, userID string, cashCents int64, currency string) (newBalance int64, err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var oldCash int64
	if err = tx.QueryRowContext(ctx, `SELECT cash_cents FROM bank_settings WHERE user_id=$1 FOR UPDATE`, userID).Scan(&oldCash); err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrNotFound
		}
		return 0, err
	}

	newBalance = money.ClampNonNegative(cashCents)
	if _, err = tx.ExecContext(ctx,
		`UPDATE bank_settings SET cash_cents=$1, currency=$2, version=version+1, updated_at=now() WHERE user_id=$3`,
		newBalance, currency, userID); err != nil {
		return 0, err
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO bank_audit(user_id, bet_id, old_status, new_status, delta_cents, old_cash_cents, new_cash_cents)
		 VALUES($1,NULL,'','manual_adjust',$2,$3,$4)`,
		userID, newBalance-oldCash, oldCash, newBalance); err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return newBalance, nil
}

// CreateBet insere a aposta pendente e debita a stake da banca como uma unidade:
// ou os dois registros entram, ou nenhum.
func (p *Postgres) CreateBet(ctx context.Context, b *Bet) (string, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	var oldCash int64
	if err = tx.QueryRowContext(ctx, `SELECT cash_cents FROM bank_settings WHERE user_id=$1 FOR UPDATE`, b.UserID).Scan(&oldCash); err != nil {
		if err == sql.ErrNoRows {
			return "", ErrNotFound
		}
		return "", err
	}

	if b.PlacedAt.IsZero() {
		b.PlacedAt = time.Now()
	}

	id := uuid.NewString()
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO bets (id,user_id,amount_cents,odd_value,potential_return_cents,potential_profit_cents,status,placed_at)
		VALUES ($1,$2,$3,$4,$5,$6,'pending',$7)`,
		id, b.UserID, b.AmountCents, b.OddValue, b.PotentialReturnCents, b.PotentialProfitCents, b.PlacedAt,
	); err != nil {
		return "", err
	}

	// Colocação: delta = impacto(pending) - impacto(nada) = -stake
	delta := lifecycle.TransitionDelta("", 0, 0, lifecycle.StatusPending, b.AmountCents, b.PotentialReturnCents)
	newCash := money.ClampNonNegative(oldCash + delta)

	if _, err = tx.ExecContext(ctx,
		`UPDATE bank_settings SET cash_cents=$1, version=version+1, updated_at=now() WHERE user_id=$2`,
		newCash, b.UserID); err != nil {
		return "", err
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO bank_audit(user_id, bet_id, old_status, new_status, delta_cents, old_cash_cents, new_cash_cents)
		 VALUES($1,$2,'','pending',$3,$4,$5)`,
		b.UserID, id, delta, oldCash, newCash); err != nil {
		return "", err
	}

	if err = tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

// UpdateStake edita stake/odd de uma aposta, recalculando os campos derivados.
// Aposta pendente move o caixa pelo delta da edição; aposta já liquidada só
// atualiza os derivados. Mover dinheiro exigiria uma nova liquidação explícita.
func (p *Postgres) UpdateStake(ctx context.Context, betID string, amountCents int64, oddValue float64) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var userID string
	var status lifecycle.Status
	var oldAmount, oldReturn int64
	if err = tx.QueryRowContext(ctx,
		`SELECT user_id, status, amount_cents, potential_return_cents FROM bets WHERE id=$1 FOR UPDATE`,
		betID).Scan(&userID, &status, &oldAmount, &oldReturn); err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return err
	}

	newReturn := money.MulOdd(amountCents, oddValue)
	newProfit := newReturn - amountCents

	if _, err = tx.ExecContext(ctx, `
		UPDATE bets SET amount_cents=$1, odd_value=$2, potential_return_cents=$3, potential_profit_cents=$4, updated_at=now()
		WHERE id=$5`,
		amountCents, oddValue, newReturn, newProfit, betID); err != nil {
		return err
	}

	if status == lifecycle.StatusPending {
		var oldCash int64
		if err = tx.QueryRowContext(ctx, `SELECT cash_cents FROM bank_settings WHERE user_id=$1 FOR UPDATE`, userID).Scan(&oldCash); err != nil {
			return err
		}

		delta := lifecycle.TransitionDelta(status, oldAmount, oldReturn, status, amountCents, newReturn)
		newCash := money.ClampNonNegative(oldCash + delta)

		if _, err = tx.ExecContext(ctx,
			`UPDATE bank_settings SET cash_cents=$1, version=version+1, updated_at=now() WHERE user_id=$2`,
			newCash, userID); err != nil {
			return err
		}

		if _, err = tx.ExecContext(ctx,
			`INSERT INTO bank_audit(user_id, bet_id, old_status, new_status, delta_cents, old_cash_cents, new_cash_cents)
			 VALUES($1,$2,$3,$4,$5,$6,$7)`,
			userID, betID, status, status, delta, oldCash, newCash); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ApplyTransition aplica a liquidação de uma aposta: novo status + ajuste de
// caixa + auditoria, tudo na mesma transação. Idempotente: aposta já no status
// alvo não movimenta nada (Applied=false). Conflito de lock/serialização volta
// como erro para o chamador tentar de novo com leituras frescas, nunca é
// engolido. Escrita perdida aqui é dinheiro contabilizado errado.
func (p *Postgres) ApplyTransition(ctx context.Context, betID string, newStatus lifecycle.Status) (TransitionResult, error) {
	if !newStatus.Valid() {
		return TransitionResult{}, ErrInvalidStatus
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return TransitionResult{}, err
	}
	defer tx.Rollback()

	var userID string
	var oldStatus lifecycle.Status
	var amount, ret int64
	if err = tx.QueryRowContext(ctx,
		`SELECT user_id, status, amount_cents, potential_return_cents FROM bets WHERE id=$1 FOR UPDATE`,
		betID).Scan(&userID, &oldStatus, &amount, &ret); err != nil {
		if err == sql.ErrNoRows {
			return TransitionResult{}, ErrNotFound
		}
		return TransitionResult{}, err
	}

	// Apply duplicado (retry, mensagem repetida): no-op antes de qualquer delta.
	if oldStatus == newStatus {
		return TransitionResult{Applied: false, OldStatus: oldStatus, NewStatus: newStatus}, tx.Commit()
	}

	if err = lifecycle.CanTransition(oldStatus, newStatus); err != nil {
		return TransitionResult{}, err
	}

	var oldCash int64
	if err = tx.QueryRowContext(ctx, `SELECT cash_cents FROM bank_settings WHERE user_id=$1 FOR UPDATE`, userID).Scan(&oldCash); err != nil {
		if err == sql.ErrNoRows {
			return TransitionResult{}, ErrNotFound
		}
		return TransitionResult{}, err
	}

	delta := lifecycle.TransitionDelta(oldStatus, amount, ret, newStatus, amount, ret)
	newCash := money.ClampNonNegative(oldCash + delta)

	if _, err = tx.ExecContext(ctx,
		`UPDATE bets SET status=$1, result_at=now(), updated_at=now() WHERE id=$2`,
		newStatus, betID); err != nil {
		return TransitionResult{}, err
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE bank_settings SET cash_cents=$1, version=version+1, updated_at=now() WHERE user_id=$2`,
		newCash, userID); err != nil {
		return TransitionResult{}, err
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO bank_audit(user_id, bet_id, old_status, new_status, delta_cents, old_cash_cents, new_cash_cents)
		 VALUES($1,$2,$3,$4,$5,$6,$7)`,
		userID, betID, oldStatus, newStatus, delta, oldCash, newCash); err != nil {
		return TransitionResult{}, err
	}

	if err = tx.Commit(); err != nil {
		return TransitionResult{}, err
	}

	return TransitionResult{
		Applied:      true,
		OldStatus:    oldStatus,
		NewStatus:    newStatus,
		DeltaCents:   delta,
		NewCashCents: newCash,
	}, nil
}

// GetBet retorna uma aposta pelo id.
func (p *Postgres) GetBet(ctx context.Context, betID string) (Bet, error) {
	var b Bet
	err := p.db.QueryRowContext(ctx, `
		SELECT id,user_id,amount_cents,odd_value,potential_return_cents,potential_profit_cents,status,placed_at,result_at,created_at,updated_at
		FROM bets WHERE id=$1`, betID).
		Scan(&b.ID, &b.UserID, &b.AmountCents, &b.OddValue, &b.PotentialReturnCents, &b.PotentialProfitCents,
			&b.Status, &b.PlacedAt, &b.ResultAt, &b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return Bet{}, ErrNotFound
	}
	return b, err
}

// ListBets retorna as apostas de um usuário, mais antigas primeiro.
func (p *Postgres) ListBets(ctx context.Context, userID string) ([]Bet, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id,user_id,amount_cents,odd_value,potential_return_cents,potential_profit_cents,status,placed_at,result_at,created_at,updated_at
		FROM bets WHERE user_id=$1 ORDER BY placed_at ASC, id ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bets []Bet
	for rows.Next() {
		var b Bet
		if err := rows.Scan(&b.ID, &b.UserID, &b.AmountCents, &b.OddValue, &b.PotentialReturnCents, &b.PotentialProfitCents,
			&b.Status, &b.PlacedAt, &b.ResultAt, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		bets = append(bets, b)
	}
	return bets, rows.Err()
}
