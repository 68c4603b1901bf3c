package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"math"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"expense-tracker-server/src/models"
)

var (
	ErrIncompleteDraft = errors.New("please add a text, category and amount")
	ErrSave            = errors.New("error saving transaction")
	ErrDelete          = errors.New("error deleting transaction")
	ErrNothingToExport = errors.New("no transactions to export")
)

// API is the server surface the controller depends on. *Client implements it.
type API interface {
	List(ctx context.Context) ([]models.Transaction, error)
	Create(ctx context.Context, fields models.TransactionFields) (*models.Transaction, error)
	Update(ctx context.Context, id string, fields models.TransactionFields) (*models.Transaction, error)
	Delete(ctx context.Context, id string) error
}

// Draft is the entry form. Amount is the magnitude as typed; Type decides
// the sign that is sent to the server.
type Draft struct {
	Text     string
	Category string
	Amount   string
	Date     string
	Type     string
}

// Controller owns the principal's cached records and the edit state. Network
// calls are not serialised against each other; only cache updates are.
type Controller struct {
	api API
	now func() time.Time

	mu        sync.Mutex
	records   []models.Transaction
	editingID string
	filter    Filter
}

func NewController(api API) *Controller {
	return &Controller{api: api, now: time.Now}
}

// Load replaces the cache with the server's listing.
func (c *Controller) Load(ctx context.Context) error {
	records, err := c.api.List(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.records = slices.Clone(records)
	c.mu.Unlock()
	return nil
}

// Submit creates a record, or updates the one being edited, and reconciles
// the cache with the server's answer.
func (c *Controller) Submit(ctx context.Context, d Draft) (*models.Transaction, error) {
	fields, err := d.fields()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	editingID := c.editingID
	c.mu.Unlock()

	if editingID != "" {
		updated, err := c.api.Update(ctx, editingID, fields)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSave, err)
		}
		c.mu.Lock()
		for i := range c.records {
			if c.records[i].ID == editingID {
				c.records[i] = *updated
			}
		}
		if c.editingID == editingID {
			c.editingID = ""
		}
		c.mu.Unlock()
		return updated, nil
	}

	created, err := c.api.Create(ctx, fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSave, err)
	}
	c.mu.Lock()
	c.records = append(c.records, *created)
	c.mu.Unlock()
	return created, nil
}

// Edit puts the controller in edit mode for id and returns the prefilled
// form. The form's type comes from the amount sign.
func (c *Controller) Edit(id string) (Draft, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := slices.IndexFunc(c.records, func(tx models.Transaction) bool { return tx.ID == id })
	if i < 0 {
		return Draft{}, false
	}
	tx := c.records[i]
	c.editingID = id
	return Draft{
		Text:     tx.Text,
		Category: tx.Category,
		Amount:   strconv.FormatFloat(math.Abs(tx.Amount), 'f', -1, 64),
		Date:     tx.Date,
		Type:     models.DirectionOf(tx.Amount),
	}, true
}

func (c *Controller) CancelEdit() {
	c.mu.Lock()
	c.editingID = ""
	c.mu.Unlock()
}

func (c *Controller) EditingID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editingID
}

// Remove deletes id on the server, drops it from the cache and leaves edit
// mode if it was the record being edited.
func (c *Controller) Remove(ctx context.Context, id string) error {
	if err := c.api.Delete(ctx, id); err != nil {
		return fmt.Errorf("%w: %w", ErrDelete, err)
	}
	c.mu.Lock()
	c.records = slices.DeleteFunc(c.records, func(tx models.Transaction) bool { return tx.ID == id })
	if c.editingID == id {
		c.editingID = ""
	}
	c.mu.Unlock()
	return nil
}

// Records returns a copy of the cache in its current order.
func (c *Controller) Records() []models.Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.records)
}

// Totals aggregates the full cache, ignoring the view filter.
func (c *Controller) Totals() Totals {
	return Summarize(c.Records())
}

func (c *Controller) SetFilter(f Filter) {
	c.mu.Lock()
	c.filter = f
	c.mu.Unlock()
}

func (c *Controller) Filter() Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

// View is the filtered list for rendering. It snapshots the cache now and
// evaluates the filter lazily each time it is ranged over.
func (c *Controller) View() iter.Seq[models.Transaction] {
	c.mu.Lock()
	records := slices.Clone(c.records)
	f := c.filter
	c.mu.Unlock()
	return f.Apply(records, c.now())
}

// Export writes the whole cache as CSV.
func (c *Controller) Export(w io.Writer) error {
	records := c.Records()
	if len(records) == 0 {
		return ErrNothingToExport
	}
	return WriteCSV(w, records)
}

func (d Draft) fields() (models.TransactionFields, error) {
	if strings.TrimSpace(d.Text) == "" || strings.TrimSpace(d.Amount) == "" || strings.TrimSpace(d.Category) == "" {
		return models.TransactionFields{}, ErrIncompleteDraft
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(d.Amount), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return models.TransactionFields{}, fmt.Errorf("invalid amount %q", d.Amount)
	}

	kind := strings.ToLower(d.Type)
	if kind != models.TypeExpense {
		kind = models.TypeIncome
	}
	amount := math.Abs(value)
	if kind == models.TypeExpense {
		amount = -amount
	}

	text, category, date := d.Text, d.Category, d.Date
	return models.TransactionFields{
		Text:     &text,
		Category: &category,
		Amount:   &amount,
		Date:     &date,
		Type:     &kind,
	}, nil
}
