package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finance-dashboard/internal/currency"
	"finance-dashboard/internal/event"
	"finance-dashboard/internal/model"
	"finance-dashboard/internal/util"
	"finance-dashboard/pkg/apierror"
)

type assetStore interface {
	Create(ctx context.Context, a model.Asset) error
	FindByID(ctx context.Context, id string) (model.Asset, error)
	List(ctx context.Context, query model.AssetQuery) ([]model.Asset, int, error)
	Update(ctx context.Context, a model.Asset) error
	SetSoftDeleted(ctx context.Context, id string, deleted bool) error
	Delete(ctx context.Context, id string) error
}

type AssetService struct {
	store     assetStore
	prefs     *PreferenceService
	formatter *currency.Formatter
	bus       event.Publisher
}

func NewAssetService(store assetStore, prefs *PreferenceService, formatter *currency.Formatter, bus event.Publisher) *AssetService {
	return &AssetService{store: store, prefs: prefs, formatter: formatter, bus: bus}
}

func (s *AssetService) Create(ctx context.Context, userID string, req model.CreateAssetRequest) (model.Asset, error) {
	name, err := util.CleanText(req.Name, "name", util.MaxNameRunes, true)
	if err != nil {
		return model.Asset{}, err
	}
	if req.Type == "" {
		req.Type = model.AssetTypeOther
	}
	if !req.Type.Valid() {
		return model.Asset{}, apierror.BadRequest("invalid asset type", string(req.Type))
	}
	if err := checkAmount("value", req.Value); err != nil {
		return model.Asset{}, err
	}

	prefs, err := s.prefs.Get(ctx, userID)
	if err != nil {
		return model.Asset{}, err
	}
	code, err := pickCurrency(req.Currency, prefs.Currency)
	if err != nil {
		return model.Asset{}, err
	}

	now := time.Now().UTC()
	asset := model.Asset{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		Type:      req.Type,
		Value:     req.Value,
		Currency:  code,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, asset); err != nil {
		return model.Asset{}, err
	}

	s.decorate(&asset, prefs)
	s.emit(ctx, event.TypeAssetCreated, asset, userID)
	return asset, nil
}

// Get returns a visible asset owned by userID.
func (s *AssetService) Get(ctx context.Context, userID string, id string) (model.Asset, error) {
	asset, err := s.owned(ctx, userID, id)
	if err != nil {
		return model.Asset{}, err
	}
	if asset.SoftDeleted {
		return model.Asset{}, model.ErrAssetNotFound
	}

	prefs, err := s.prefs.Get(ctx, userID)
	if err != nil {
		return model.Asset{}, err
	}
	s.decorate(&asset, prefs)
	return asset, nil
}

func (s *AssetService) List(ctx context.Context, query model.AssetQuery) ([]model.Asset, int, error) {
	if query.Type != "" && !query.Type.Valid() {
		return nil, 0, apierror.BadRequest("invalid asset type", string(query.Type))
	}

	assets, total, err := s.store.List(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	prefs, err := s.prefs.Get(ctx, query.UserID)
	if err != nil {
		return nil, 0, err
	}
	for i := range assets {
		s.decorate(&assets[i], prefs)
	}
	return assets, total, nil
}

func (s *AssetService) Update(ctx context.Context, userID string, id string, req model.UpdateAssetRequest) (model.Asset, error) {
	asset, err := s.owned(ctx, userID, id)
	if err != nil {
		return model.Asset{}, err
	}
	if asset.SoftDeleted {
		return model.Asset{}, model.ErrAssetNotFound
	}

	if req.Name != nil {
		name, err := util.CleanText(*req.Name, "name", util.MaxNameRunes, true)
		if err != nil {
			return model.Asset{}, err
		}
		asset.Name = name
	}
	if req.Type != nil {
		if !req.Type.Valid() {
			return model.Asset{}, apierror.BadRequest("invalid asset type", string(*req.Type))
		}
		asset.Type = *req.Type
	}
	if req.Value != nil {
		if err := checkAmount("value", *req.Value); err != nil {
			return model.Asset{}, err
		}
		asset.Value = *req.Value
	}
	if req.Currency != nil {
		code, err := pickCurrency(*req.Currency, asset.Currency)
		if err != nil {
			return model.Asset{}, err
		}
		asset.Currency = code
	}

	asset.UpdatedAt = time.Now().UTC()
	if err := s.store.Update(ctx, asset); err != nil {
		return model.Asset{}, err
	}

	prefs, err := s.prefs.Get(ctx, userID)
	if err != nil {
		return model.Asset{}, err
	}
	s.decorate(&asset, prefs)
	s.emit(ctx, event.TypeAssetUpdated, asset, userID)
	return asset, nil
}

// Target resolves the deletion target for an asset owned by userID. A
// soft-deleted asset still resolves so a new deletion can supersede the
// pending one.
func (s *AssetService) Target(ctx context.Context, userID string, id string) (model.DeletionTarget, error) {
	asset, err := s.owned(ctx, userID, id)
	if err != nil {
		return model.DeletionTarget{}, err
	}
	return model.DeletionTarget{Kind: model.KindAsset, ID: asset.ID, Name: asset.Name}, nil
}

func (s *AssetService) SoftDelete(ctx context.Context, id string, deleted bool) error {
	return s.store.SetSoftDeleted(ctx, id, deleted)
}

func (s *AssetService) PermanentlyDelete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

func (s *AssetService) owned(ctx context.Context, userID string, id string) (model.Asset, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return model.Asset{}, model.ErrMissingIdentifier
	}
	if _, err := uuid.Parse(id); err != nil {
		return model.Asset{}, model.ErrAssetNotFound
	}

	asset, err := s.store.FindByID(ctx, id)
	if err != nil {
		return model.Asset{}, err
	}
	if asset.UserID != userID {
		return model.Asset{}, model.ErrAssetNotFound
	}
	return asset, nil
}

func (s *AssetService) decorate(a *model.Asset, prefs model.Preferences) {
	a.FormattedValue = s.formatter.Format(a.Value, a.Currency, prefs.Locale)
}

func (s *AssetService) emit(ctx context.Context, topic event.Type, payload any, actorID string) {
	if s.bus != nil {
		s.bus.Emit(ctx, topic, payload, actorID)
	}
}

// pickCurrency validates requested, falling back to fallback when empty.
// Stored amounts are NUMERIC(20, 4).
const (
	amountScale     = 4
	amountIntDigits = 16
)

var amountLimit = decimal.New(1, amountIntDigits)

// checkAmount rejects values the amount columns cannot hold exactly.
func checkAmount(field string, value decimal.Decimal) error {
	if value.Abs().GreaterThanOrEqual(amountLimit) {
		return apierror.BadRequest(field+" out of range", fmt.Sprintf("%s must have at most %d integer digits", field, amountIntDigits))
	}
	if !value.Equal(value.Truncate(amountScale)) {
		return apierror.BadRequest(field+" has too many decimal places", fmt.Sprintf("%s must have at most %d decimal places", field, amountScale))
	}
	return nil
}

func pickCurrency(requested string, fallback string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(requested))
	if code == "" {
		code = fallback
	}
	if !currency.Valid(code) {
		return "", apierror.BadRequest("unknown currency", requested)
	}
	return code, nil
}
