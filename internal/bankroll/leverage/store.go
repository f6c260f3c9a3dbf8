package leverage

import (
	"context"
	"sync"
)

// Persister é o colaborador de persistência do plano, injetado pela borda.
// Implementações reais ficam fora do core (Redis, memória nos testes).
type Persister interface {
	Load(ctx context.Context) (Plan, bool, error)
	Save(ctx context.Context, p Plan) error
}

// Store compartilha um plano entre componentes sem estado global: cada
// instância tem seu próprio plano e seu próprio conjunto de listeners.
type Store struct {
	mu        sync.Mutex
	plan      Plan
	persister Persister
	listeners map[int]func(Plan)
	nextID    int
}

// NewStore cria o store a partir de um plano inicial. persister pode ser nil
// (store puramente em memória).
func NewStore(initial Plan, persister Persister) *Store {
	initial.Normalize()
	return &Store{
		plan:      initial,
		persister: persister,
		listeners: make(map[int]func(Plan)),
	}
}

// Load repõe o estado a partir da persistência, se houver plano salvo.
func (s *Store) Load(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	p, ok, err := s.persister.Load(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	p.Normalize()

	s.mu.Lock()
	s.plan = p
	fns := s.snapshotListeners()
	s.mu.Unlock()

	for _, fn := range fns {
		fn(p)
	}
	return nil
}

// State retorna uma cópia do plano atual.
func (s *Store) State() Plan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plan.clone()
}

// Dispatch aplica uma mutação ao plano, persiste e notifica os listeners.
// A mutação roda sob o lock; listeners rodam fora dele.
func (s *Store) Dispatch(ctx context.Context, mutate func(*Plan)) error {
	s.mu.Lock()
	mutate(&s.plan)
	s.plan.Normalize()
	snapshot := s.plan.clone()
	fns := s.snapshotListeners()
	s.mu.Unlock()

	if s.persister != nil {
		if err := s.persister.Save(ctx, snapshot); err != nil {
			return err
		}
	}
	for _, fn := range fns {
		fn(snapshot)
	}
	return nil
}

// Subscribe registra um listener e devolve a função de unsubscribe.
func (s *Store) Subscribe(fn func(Plan)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Store) snapshotListeners() []func(Plan) {
	fns := make([]func(Plan), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	return fns
}

func (p Plan) clone() Plan {
	c := p
	c.OddsByDay = append([]float64(nil), p.OddsByDay...)
	return c
}
