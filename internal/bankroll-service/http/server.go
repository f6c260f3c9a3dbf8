package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/radieske/bankroll-tracker/internal/bankroll-service/cache"
	"github.com/radieske/bankroll-tracker/internal/bankroll-service/dto"
	"github.com/radieske/bankroll-tracker/internal/bankroll-service/pubsub"
	"github.com/radieske/bankroll-tracker/internal/bankroll-service/repo"
	"github.com/radieske/bankroll-tracker/internal/bankroll/ledger"
	"github.com/radieske/bankroll-tracker/internal/bankroll/leverage"
	"github.com/radieske/bankroll-tracker/internal/bankroll/lifecycle"
	"github.com/radieske/bankroll-tracker/internal/bankroll/money"
	"github.com/radieske/bankroll-tracker/internal/bankroll/oddsmath"
	planrepo "github.com/radieske/bankroll-tracker/internal/plan-service/repo"
	"github.com/radieske/bankroll-tracker/pkg/contracts/events"
)

// Publisher publica comandos de liquidação para o settlement-worker.
type Publisher interface {
	PublishSettleRequested(context.Context, events.BetSettleRequested) error
}

// Server expõe a API HTTP do bankroll: apostas, banca, ledger e plano de
// alavancagem.
type Server struct {
	log         *zap.Logger
	repo        *repo.Postgres
	plans       *planrepo.Redis
	ledgerCache *cache.Cache
	broadcast   *pubsub.RedisBroadcaster
	publ        Publisher
	currency    string
	bankChannel string
}

func NewServer(log *zap.Logger, r *repo.Postgres, plans *planrepo.Redis, lc *cache.Cache, bc *pubsub.RedisBroadcaster, p Publisher, currency, bankChannel string) *Server {
	return &Server{
		log:         log,
		repo:        r,
		plans:       plans,
		ledgerCache: lc,
		broadcast:   bc,
		publ:        p,
		currency:    currency,
		bankChannel: bankChannel,
	}
}

// Router retorna o mux HTTP com as rotas da API
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/bets", s.bets)                  // POST cria, GET ?userId=... lista
	mux.HandleFunc("/bets/", s.betByID)              // PUT /bets/{id}, POST /bets/{id}/settle
	mux.HandleFunc("/bank", s.bank)                  // GET ?userId=..., PUT ajusta caixa
	mux.HandleFunc("/ledger", s.getLedger)           // GET ?userId=...
	mux.HandleFunc("/leverage/plan", s.leveragePlan) // GET ?userId=..., PUT salva
	mux.HandleFunc("/leverage/projection", s.projection)
	mux.HandleFunc("/analysis", s.analysis) // POST EV/edge/combinada
	return mux
}

func (s *Server) bets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createBet(w, r)
	case http.MethodGet:
		s.listBets(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) createBet(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.Amount <= 0 || req.OddValue <= 1.0 {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	amountCents := money.ToCents(req.Amount)
	returnCents := money.MulOdd(amountCents, req.OddValue)

	// Garante que a banca existe antes de debitar a stake
	if _, err := s.repo.GetOrCreateBank(r.Context(), req.UserID, s.currency); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	bet := &repo.Bet{
		UserID:               req.UserID,
		AmountCents:          amountCents,
		OddValue:             req.OddValue,
		PotentialReturnCents: returnCents,
		PotentialProfitCents: returnCents - amountCents,
	}
	betID, err := s.repo.CreateBet(r.Context(), bet)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.invalidateLedger(r.Context(), req.UserID)

	bet.ID = betID
	bet.Status = lifecycle.StatusPending
	writeJSON(w, toBetResponse(bet))
}

func (s *Server) listBets(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "userId required", http.StatusBadRequest)
		return
	}
	bets, err := s.repo.ListBets(r.Context(), userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	out := make([]dto.BetResponse, 0, len(bets))
	for i := range bets {
		out = append(out, toBetResponse(&bets[i]))
	}
	writeJSON(w, out)
}

// betByID roteia /bets/{id} e /bets/{id}/settle
func (s *Server) betByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/bets/")
	parts := strings.Split(rest, "/")
	if parts[0] == "" {
		http.Error(w, "betId required", http.StatusBadRequest)
		return
	}
	betID := parts[0]

	switch {
	case len(parts) == 1 && r.Method == http.MethodPut:
		s.updateBet(w, r, betID)
	case len(parts) == 1 && r.Method == http.MethodGet:
		s.getBet(w, r, betID)
	case len(parts) == 2 && parts[1] == "settle" && r.Method == http.MethodPost:
		s.settleBet(w, r, betID)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (s *Server) getBet(w http.ResponseWriter, r *http.Request, betID string) {
	bet, err := s.repo.GetBet(r.Context(), betID)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, toBetResponse(&bet))
}

func (s *Server) updateBet(w http.ResponseWriter, r *http.Request, betID string) {
	var req dto.UpdateBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Amount <= 0 || req.OddValue <= 1.0 {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	if err := s.repo.UpdateStake(r.Context(), betID, money.ToCents(req.Amount), req.OddValue); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	bet, err := s.repo.GetBet(r.Context(), betID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.invalidateLedger(r.Context(), bet.UserID)
	writeJSON(w, toBetResponse(&bet))
}

// settleBet não aplica a transição: publica o comando e deixa o worker
// serializar todas as mutações de caixa (ponto único de escrita).
func (s *Server) settleBet(w http.ResponseWriter, r *http.Request, betID string) {
	var req dto.SettleBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	newStatus := lifecycle.Status(req.NewStatus)
	if !newStatus.Settled() {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	// Pré-checagem barata pra devolver 404/409 antes de enfileirar.
	bet, err := s.repo.GetBet(r.Context(), betID)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if bet.Status == newStatus {
		writeJSON(w, dto.SettleAcceptedResponse{BetID: betID, Status: "already_" + string(newStatus)})
		return
	}
	if err := lifecycle.CanTransition(bet.Status, newStatus); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	if err := s.publ.PublishSettleRequested(r.Context(), events.BetSettleRequested{
		BetID:     betID,
		UserID:    bet.UserID,
		NewStatus: string(newStatus),
	}); err != nil {
		http.Error(w, "settle publish failed", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, dto.SettleAcceptedResponse{BetID: betID, Status: "settle_requested"})
}

func (s *Server) bank(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		userID := r.URL.Query().Get("userId")
		if userID == "" {
			http.Error(w, "userId required", http.StatusBadRequest)
			return
		}
		b, err := s.repo.GetOrCreateBank(r.Context(), userID, s.currency)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, toBankResponse(b))

	case http.MethodPut:
		var req dto.SetBankRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.UserID == "" || req.Cash < 0 {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}
		currency := req.Currency
		if currency == "" {
			currency = s.currency
		}
		if _, err := s.repo.GetOrCreateBank(r.Context(), req.UserID, currency); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		newCash, err := s.repo.SetCash(r.Context(), req.UserID, money.ToCents(req.Cash), currency)
		if err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}

		s.invalidateLedger(r.Context(), req.UserID)
		s.publishBankUpdate(r.Context(), events.BankUpdated{UserID: req.UserID, NewCashCents: newCash})

		b, err := s.repo.GetOrCreateBank(r.Context(), req.UserID, currency)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, toBankResponse(b))

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// getLedger reconstrói a curva caixa/patrimônio do usuário a partir das
// apostas atuais. Resultado cacheado por TTL curto e invalidado a cada escrita.
func (s *Server) getLedger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "userId required", http.StatusBadRequest)
		return
	}

	if s.ledgerCache != nil {
		if resp, ok, err := s.ledgerCache.GetLedger(r.Context(), userID); err == nil && ok {
			resp.FromCache = true
			writeJSON(w, resp)
			return
		}
	}

	bank, err := s.repo.GetOrCreateBank(r.Context(), userID, s.currency)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	bets, err := s.repo.ListBets(r.Context(), userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	lbets := toLedgerBets(bets)

	// O caixa persistido já carrega o efeito de todas as apostas; o ponto de
	// partida do replay é o caixa antes delas.
	netDelta := ledger.NetCashDelta(lbets)
	res := ledger.Builder{}.Build(lbets, bank.CashCents-netDelta)

	resp := dto.LedgerResponse{
		Series:      res.Series,
		Summary:     res.Summary,
		FinalCash:   money.FromCents(res.FinalCashCents),
		FinalEquity: money.FromCents(res.FinalEquityCents),
		NetDelta:    money.FromCents(netDelta),
	}

	if s.ledgerCache != nil {
		if err := s.ledgerCache.SetLedger(r.Context(), userID, resp); err != nil {
			s.log.Warn("ledger cache set failed", zap.Error(err))
		}
	}

	writeJSON(w, resp)
}

func (s *Server) leveragePlan(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		userID := r.URL.Query().Get("userId")
		if userID == "" {
			http.Error(w, "userId required", http.StatusBadRequest)
			return
		}
		store := s.planStore(userID)
		if err := store.Load(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, store.State())

	case http.MethodPut:
		var req dto.LeveragePlanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.UserID == "" {
			http.Error(w, "userId required", http.StatusBadRequest)
			return
		}
		if v := leverage.ValidateParams(req.InitialInvestment, req.DefaultOdds, req.Days); !v.Valid {
			writeJSON(w, dto.ProjectionResponse{Valid: false, Error: v.Error})
			return
		}

		store := s.planStore(req.UserID)
		if err := store.Dispatch(r.Context(), func(p *leverage.Plan) {
			p.Days = req.Days
			p.InitialInvestment = req.InitialInvestment
			p.DefaultOdds = req.DefaultOdds
			p.OddsByDay = append([]float64(nil), req.OddsByDay...)
		}); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, store.State())

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// planStore monta o store do plano ancorado na persistência Redis do usuário.
// Sem plano salvo vale o default do app.
func (s *Server) planStore(userID string) *leverage.Store {
	return leverage.NewStore(leverage.NewPlan(15, 0, 1.5), s.plans.ForUser(userID))
}

// projection calcula a progressão sem persistir nada: validação estruturada,
// nunca erro HTTP por parâmetro inválido.
func (s *Server) projection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.LeveragePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	if v := leverage.ValidateParams(req.InitialInvestment, req.DefaultOdds, req.Days); !v.Valid {
		writeJSON(w, dto.ProjectionResponse{Valid: false, Error: v.Error})
		return
	}

	var rows []leverage.Row
	if len(req.OddsByDay) > 0 {
		rows = leverage.Progression(req.InitialInvestment, req.OddsByDay, req.Days)
	} else {
		rows = leverage.FixedProgression(req.InitialInvestment, req.DefaultOdds, req.Days)
	}
	writeJSON(w, dto.ProjectionResponse{Valid: true, Rows: rows})
}

func (s *Server) analysis(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.OddValue <= 1.0 || req.ProbabilityPct < 0 || req.ProbabilityPct > 100 {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	resp := dto.AnalysisResponse{
		ExpectedValuePct:      oddsmath.ExpectedValuePct(req.ProbabilityPct, req.OddValue),
		EdgePP:                oddsmath.EdgePP(req.ProbabilityPct, req.OddValue, req.MarginPct),
		ImpliedProbabilityPct: oddsmath.ImpliedProbabilityPct(req.OddValue, req.MarginPct),
	}
	if req.Probability2Pct != nil {
		combined := oddsmath.CombinedProbabilityPct(req.ProbabilityPct, *req.Probability2Pct)
		resp.CombinedProbabilityPct = &combined
	}
	writeJSON(w, resp)
}

func (s *Server) invalidateLedger(ctx context.Context, userID string) {
	if s.ledgerCache == nil {
		return
	}
	if err := s.ledgerCache.Invalidate(ctx, userID); err != nil {
		s.log.Warn("ledger cache invalidate failed", zap.Error(err))
	}
}

func (s *Server) publishBankUpdate(ctx context.Context, e events.BankUpdated) {
	if s.broadcast == nil {
		return
	}
	if err := s.broadcast.PublishBankUpdated(ctx, s.bankChannel, e); err != nil {
		s.log.Warn("bank broadcast publish failed", zap.Error(err))
	}
}

func toBetResponse(b *repo.Bet) dto.BetResponse {
	return dto.BetResponse{
		BetID:           b.ID,
		UserID:          b.UserID,
		Amount:          money.FromCents(b.AmountCents),
		OddValue:        b.OddValue,
		PotentialReturn: money.FromCents(b.PotentialReturnCents),
		PotentialProfit: money.FromCents(b.PotentialProfitCents),
		Status:          string(b.Status),
		PlacedAt:        b.PlacedAt,
		ResultAt:        b.ResultAt,
	}
}

func toBankResponse(b repo.BankSettings) dto.BankResponse {
	return dto.BankResponse{
		UserID:    b.UserID,
		Cash:      money.FromCents(b.CashCents),
		Currency:  b.Currency,
		Version:   b.Version,
		UpdatedAt: b.UpdatedAt,
	}
}

func toLedgerBets(bets []repo.Bet) []ledger.Bet {
	out := make([]ledger.Bet, 0, len(bets))
	for _, b := range bets {
		out = append(out, ledger.Bet{
			ID:                   b.ID,
			AmountCents:          b.AmountCents,
			Odd:                  b.OddValue,
			PotentialReturnCents: b.PotentialReturnCents,
			Status:               b.Status,
			PlacedAt:             b.PlacedAt,
			ResultAt:             b.ResultAt,
			CreatedAt:            b.CreatedAt,
		})
	}
	return out
}

// writeJSON serializa e envia resposta JSON
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
