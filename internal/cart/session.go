package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"medipos-system/internal/search"
)

// State tracks where a billing session sits between an empty counter and a
// recorded bill.
type State int

const (
	StateIdle State = iota
	StateBuilding
	StateConfirming
	StateSubmitting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBuilding:
		return "building"
	case StateConfirming:
		return "confirming"
	case StateSubmitting:
		return "submitting"
	default:
		return "unknown"
	}
}

var (
	ErrEmptyCart      = errors.New("cart is empty")
	ErrSubmitInFlight = errors.New("a bill submission is already in flight")
	ErrSessionBusy    = errors.New("session is confirming or submitting")
	ErrNotConfirming  = errors.New("bill has not been confirmed")
	ErrLocationLocked = errors.New("location change requires confirmation while the cart has items")
)

// Searcher is the catalog collaborator. Queries shorter than the minimum
// never reach it.
type Searcher interface {
	Search(ctx context.Context, query string, locationID *int64) ([]Product, error)
}

// Submitter records a finalized bill and returns its bill number.
type Submitter interface {
	Submit(ctx context.Context, bill BillSubmission) (string, error)
}

// Receipt is what a successful submission hands back to the caller.
type Receipt struct {
	BillNumber string         `json:"bill_number"`
	Bill       BillSubmission `json:"bill"`
}

// Session owns one cart for the duration of one billing interaction. All
// mutations go through it so the state machine and the submit guard cannot
// be bypassed.
type Session struct {
	ID string

	mu        sync.Mutex
	cart      *Cart
	state     State
	bctx      BillingContext
	searcher  Searcher
	submitter Submitter

	queries   *search.Scheduler
	results   []Product
	searchErr error
}

func NewSession(id string, searcher Searcher, submitter Submitter, quiet time.Duration) *Session {
	s := &Session{
		ID:        id,
		cart:      NewCart(),
		state:     StateIdle,
		searcher:  searcher,
		submitter: submitter,
	}
	s.queries = search.NewScheduler(quiet, search.MinQueryLength, s.runSearch)
	return s
}

// Snapshot is the render state for one session.
type Snapshot struct {
	SessionID string         `json:"session_id"`
	State     string         `json:"state"`
	Lines     []Line         `json:"lines"`
	Totals    Totals         `json:"totals"`
	Context   BillingContext `json:"context"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		SessionID: s.ID,
		State:     s.state.String(),
		Lines:     s.cart.Lines(),
		Totals:    s.cart.Totals(),
		Context:   s.bctx,
	}
}

func (s *Session) editable() error {
	switch s.state {
	case StateSubmitting:
		return ErrSubmitInFlight
	case StateConfirming:
		return ErrSessionBusy
	default:
		return nil
	}
}

func (s *Session) AddProduct(p Product) (Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return Line{}, err
	}
	line := s.cart.AddProduct(p)
	s.state = StateBuilding
	return line, nil
}

func (s *Session) UpdateQuantity(key string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	s.cart.UpdateQuantity(key, quantity)
	return nil
}

func (s *Session) UpdateSalePrice(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	s.cart.UpdateSalePrice(key, value)
	return nil
}

func (s *Session) UpdateBatch(key, batch string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	s.cart.UpdateBatch(key, batch)
	return nil
}

func (s *Session) UpdateExpiry(key, expiry string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	s.cart.UpdateExpiry(key, expiry)
	return nil
}

func (s *Session) RemoveLine(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	s.cart.RemoveLine(key)
	if s.cart.Len() == 0 {
		s.state = StateIdle
	}
	return nil
}

// SetLocation scopes the session to a location. While the cart has lines the
// change must be confirmed, and confirming it discards the cart: lines
// assembled against one location's stock do not carry over to another.
func (s *Session) SetLocation(locationID int64, confirmed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	if s.cart.Len() > 0 {
		if !confirmed {
			return ErrLocationLocked
		}
		s.cart.Clear()
		s.state = StateIdle
	}
	s.bctx.LocationID = &locationID
	s.results = nil
	s.searchErr = nil
	return nil
}

func (s *Session) SetDoctor(name *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	s.bctx.DoctorName = name
	return nil
}

func (s *Session) SetPatient(p *PatientRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	s.bctx.Patient = p
	return nil
}

// Confirm moves Building to Confirming, the cashier is looking at the
// confirmation dialog.
func (s *Session) Confirm() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateSubmitting {
		return ErrSubmitInFlight
	}
	if s.cart.Len() == 0 {
		return ErrEmptyCart
	}
	s.state = StateConfirming
	return nil
}

// CancelConfirm backs out of the dialog without side effects.
func (s *Session) CancelConfirm() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateConfirming {
		return ErrNotConfirming
	}
	s.state = StateBuilding
	return nil
}

// Submit sends the confirmed bill to the submitter. Exactly one submission
// can be in flight, a second call while one is outstanding fails fast. On
// success the cart is cleared, on failure it is left untouched so the
// cashier can retry without re-entering anything.
func (s *Session) Submit(ctx context.Context) (*Receipt, error) {
	s.mu.Lock()
	if s.state == StateSubmitting {
		s.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	if s.state != StateConfirming {
		s.mu.Unlock()
		return nil, ErrNotConfirming
	}
	if s.cart.Len() == 0 {
		s.mu.Unlock()
		return nil, ErrEmptyCart
	}
	bill := s.cart.BuildPayload(s.bctx)
	s.state = StateSubmitting
	s.mu.Unlock()

	number, err := s.submitter.Submit(ctx, bill)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StateBuilding
		return nil, err
	}
	s.cart.Clear()
	s.state = StateIdle
	return &Receipt{BillNumber: number, Bill: bill}, nil
}

// UpdateQuery feeds one keystroke of the product search box. Queries shorter
// than the minimum clear the result list without touching the collaborator.
func (s *Session) UpdateQuery(query string) {
	if !s.queries.Update(query) {
		s.mu.Lock()
		s.results = nil
		s.searchErr = nil
		s.mu.Unlock()
	}
}

// SearchResults returns the results of the most recent completed lookup.
func (s *Session) SearchResults() ([]Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results, s.searchErr
}

func (s *Session) runSearch(query string, gen uint64) {
	s.mu.Lock()
	locationID := s.bctx.LocationID
	s.mu.Unlock()

	products, err := s.searcher.Search(context.Background(), query, locationID)

	// A newer keystroke supersedes this lookup, drop it on the floor.
	if !s.queries.Latest(gen) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.results = nil
		s.searchErr = err
		return
	}
	s.results = products
	s.searchErr = nil
}

// Close cancels any pending search. The cart itself needs no teardown, it
// only ever lived in memory.
func (s *Session) Close() {
	s.queries.Stop()
}
