package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"finance-dashboard/internal/currency"
	"finance-dashboard/internal/event"
	"finance-dashboard/internal/model"
	"finance-dashboard/internal/util"
	"finance-dashboard/pkg/apierror"
)

type transactionStore interface {
	Create(ctx context.Context, t model.Transaction) error
	FindByID(ctx context.Context, id string) (model.Transaction, error)
	List(ctx context.Context, query model.TransactionQuery) ([]model.Transaction, int, error)
	Update(ctx context.Context, t model.Transaction) error
	SetSoftDeleted(ctx context.Context, id string, deleted bool) error
	Delete(ctx context.Context, id string) error
}

type assetLookup interface {
	Get(ctx context.Context, userID string, id string) (model.Asset, error)
}

// categorizer suggests a category from a transaction description. It reports
// false when it has nothing confident to offer.
type categorizer interface {
	Suggest(ctx context.Context, description string) (string, bool)
}

type TransactionService struct {
	store      transactionStore
	assets     assetLookup
	prefs      *PreferenceService
	formatter  *currency.Formatter
	bus        event.Publisher
	categories categorizer
}

func NewTransactionService(store transactionStore, assets assetLookup, prefs *PreferenceService, formatter *currency.Formatter, bus event.Publisher) *TransactionService {
	return &TransactionService{store: store, assets: assets, prefs: prefs, formatter: formatter, bus: bus}
}

// WithCategorizer fills empty categories from c on create, and on updates that
// change the description of an uncategorized transaction.
func (s *TransactionService) WithCategorizer(c categorizer) *TransactionService {
	s.categories = c
	return s
}

func (s *TransactionService) Create(ctx context.Context, userID string, req model.CreateTransactionRequest) (model.Transaction, error) {
	description, err := util.CleanText(req.Description, "description", util.MaxNameRunes, true)
	if err != nil {
		return model.Transaction{}, err
	}
	category, err := util.CleanText(req.Category, "category", util.MaxCategoryRunes, false)
	if err != nil {
		return model.Transaction{}, err
	}
	if !req.Type.Valid() {
		return model.Transaction{}, apierror.BadRequest("type must be income or expense", string(req.Type))
	}
	if req.Amount.Sign() <= 0 {
		return model.Transaction{}, apierror.BadRequest("amount must be positive", req.Amount.String())
	}
	if err := checkAmount("amount", req.Amount); err != nil {
		return model.Transaction{}, err
	}

	prefs, err := s.prefs.Get(ctx, userID)
	if err != nil {
		return model.Transaction{}, err
	}

	fallback := prefs.Currency
	assetID := strings.TrimSpace(req.AssetID)
	if assetID != "" {
		asset, err := s.assets.Get(ctx, userID, assetID)
		if err != nil {
			return model.Transaction{}, err
		}
		fallback = asset.Currency
	}
	code, err := pickCurrency(req.Currency, fallback)
	if err != nil {
		return model.Transaction{}, err
	}

	suggested := false
	if category == "" {
		category, suggested = s.suggestCategory(ctx, description)
	}

	now := time.Now().UTC()
	occurredAt := now
	if req.OccurredAt != nil {
		occurredAt = req.OccurredAt.UTC()
	}

	tx := model.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		AssetID:     assetID,
		Description: description,
		Amount:      req.Amount,
		Currency:    code,
		Type:        req.Type,
		Category:    category,
		OccurredAt:  occurredAt,
		CreatedAt:   now,
		UpdatedAt:   now,

		CategorySuggested: suggested,
	}
	if err := s.store.Create(ctx, tx); err != nil {
		return model.Transaction{}, err
	}

	s.decorate(&tx, prefs)
	s.emit(ctx, event.TypeTransactionCreated, tx, userID)
	return tx, nil
}

func (s *TransactionService) Get(ctx context.Context, userID string, id string) (model.Transaction, error) {
	tx, err := s.owned(ctx, userID, id)
	if err != nil {
		return model.Transaction{}, err
	}
	if tx.SoftDeleted {
		return model.Transaction{}, model.ErrTransactionNotFound
	}

	prefs, err := s.prefs.Get(ctx, userID)
	if err != nil {
		return model.Transaction{}, err
	}
	s.decorate(&tx, prefs)
	return tx, nil
}

func (s *TransactionService) List(ctx context.Context, query model.TransactionQuery) ([]model.Transaction, int, error) {
	if query.Type != "" && !query.Type.Valid() {
		return nil, 0, apierror.BadRequest("type must be income or expense", string(query.Type))
	}
	if query.From != nil && query.To != nil && !query.From.Before(*query.To) {
		return nil, 0, apierror.BadRequest("from must be before to", "")
	}

	txs, total, err := s.store.List(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	prefs, err := s.prefs.Get(ctx, query.UserID)
	if err != nil {
		return nil, 0, err
	}
	for i := range txs {
		s.decorate(&txs[i], prefs)
	}
	return txs, total, nil
}

func (s *TransactionService) Update(ctx context.Context, userID string, id string, req model.UpdateTransactionRequest) (model.Transaction, error) {
	tx, err := s.owned(ctx, userID, id)
	if err != nil {
		return model.Transaction{}, err
	}
	if tx.SoftDeleted {
		return model.Transaction{}, model.ErrTransactionNotFound
	}

	if req.Description != nil {
		description, err := util.CleanText(*req.Description, "description", util.MaxNameRunes, true)
		if err != nil {
			return model.Transaction{}, err
		}
		tx.Description = description
	}
	if req.Amount != nil {
		if req.Amount.Sign() <= 0 {
			return model.Transaction{}, apierror.BadRequest("amount must be positive", req.Amount.String())
		}
		if err := checkAmount("amount", *req.Amount); err != nil {
			return model.Transaction{}, err
		}
		tx.Amount = *req.Amount
	}
	if req.Currency != nil {
		code, err := pickCurrency(*req.Currency, tx.Currency)
		if err != nil {
			return model.Transaction{}, err
		}
		tx.Currency = code
	}
	if req.Type != nil {
		if !req.Type.Valid() {
			return model.Transaction{}, apierror.BadRequest("type must be income or expense", string(*req.Type))
		}
		tx.Type = *req.Type
	}
	if req.Category != nil {
		category, err := util.CleanText(*req.Category, "category", util.MaxCategoryRunes, false)
		if err != nil {
			return model.Transaction{}, err
		}
		tx.Category = category
	}
	if req.OccurredAt != nil {
		tx.OccurredAt = req.OccurredAt.UTC()
	}
	if req.Category == nil && req.Description != nil && tx.Category == "" {
		tx.Category, tx.CategorySuggested = s.suggestCategory(ctx, tx.Description)
	}

	tx.UpdatedAt = time.Now().UTC()
	if err := s.store.Update(ctx, tx); err != nil {
		return model.Transaction{}, err
	}

	prefs, err := s.prefs.Get(ctx, userID)
	if err != nil {
		return model.Transaction{}, err
	}
	s.decorate(&tx, prefs)
	s.emit(ctx, event.TypeTransactionUpdated, tx, userID)
	return tx, nil
}

func (s *TransactionService) Target(ctx context.Context, userID string, id string) (model.DeletionTarget, error) {
	tx, err := s.owned(ctx, userID, id)
	if err != nil {
		return model.DeletionTarget{}, err
	}
	return model.DeletionTarget{Kind: model.KindTransaction, ID: tx.ID, Name: tx.Description}, nil
}

func (s *TransactionService) SoftDelete(ctx context.Context, id string, deleted bool) error {
	return s.store.SetSoftDeleted(ctx, id, deleted)
}

func (s *TransactionService) PermanentlyDelete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

func (s *TransactionService) owned(ctx context.Context, userID string, id string) (model.Transaction, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return model.Transaction{}, model.ErrMissingIdentifier
	}
	if _, err := uuid.Parse(id); err != nil {
		return model.Transaction{}, model.ErrTransactionNotFound
	}

	tx, err := s.store.FindByID(ctx, id)
	if err != nil {
		return model.Transaction{}, err
	}
	if tx.UserID != userID {
		return model.Transaction{}, model.ErrTransactionNotFound
	}
	return tx, nil
}

func (s *TransactionService) suggestCategory(ctx context.Context, description string) (string, bool) {
	if s.categories == nil {
		return "", false
	}
	raw, ok := s.categories.Suggest(ctx, description)
	if !ok {
		return "", false
	}
	category, err := util.CleanText(raw, "category", util.MaxCategoryRunes, false)
	if err != nil || category == "" {
		return "", false
	}
	return category, true
}

func (s *TransactionService) decorate(tx *model.Transaction, prefs model.Preferences) {
	signed := tx.Signed()
	if tx.Type == model.TransactionIncome {
		tx.FormattedAmount = s.formatter.FormatSigned(signed, tx.Currency, prefs.Locale)
		return
	}
	tx.FormattedAmount = s.formatter.Format(signed, tx.Currency, prefs.Locale)
}

func (s *TransactionService) emit(ctx context.Context, topic event.Type, payload any, actorID string) {
	if s.bus != nil {
		s.bus.Emit(ctx, topic, payload, actorID)
	}
}
