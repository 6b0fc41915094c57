package syncer

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/reelfocus/reelfocus/internal/model"
	"github.com/reelfocus/reelfocus/internal/remote"
)

// ItemManager owns purchased cosmetics. It enforces the single-selection
// invariant: at most one item is selected, and once any item exists exactly
// one is. The store does not enforce this; every mutation path here does.
type ItemManager struct {
	deps     Deps
	profiles *ProfileManager
	eng      *engine[model.PurchasedItem]
}

func NewItemManager(d Deps, profiles *ProfileManager) *ItemManager {
	m := &ItemManager{deps: d, profiles: profiles}
	m.eng = &engine[model.PurchasedItem]{
		ad: adapter[model.PurchasedItem]{
			kind:            model.KindItem,
			id:              func(it *model.PurchasedItem) string { return it.ID },
			needsSync:       func(it *model.PurchasedItem) bool { return it.NeedsSync },
			setNeedsSync:    func(it *model.PurchasedItem, v bool) { it.NeedsSync = v },
			encode:          remote.EncodeItem,
			decode:          remote.DecodeItem,
			get:             d.Store.Items().Get,
			put:             d.Store.Items().Put,
			deleteLocal:     d.Store.Items().Delete,
			list:            d.Store.Items().List,
			listNeedingSync: d.Store.Items().ListNeedingSync,
			beforeInsert:    m.keepSingleSelection,
		},
		rem: d.Remote,
		reg: d.Registry,
		log: d.Log,
	}
	return m
}

// keepSingleSelection clears existing selections before a reconcile inserts
// a remote record that is itself selected.
func (m *ItemManager) keepSingleSelection(ctx context.Context, it *model.PurchasedItem) error {
	if !it.IsSelected {
		return nil
	}
	_, err := m.deps.Store.Items().UnselectAll(ctx)
	return err
}

// Purchase validates the catalog name, spends the profile's points, and
// inserts the item as the new selection. The unselect of every other item
// happens in the same call so the invariant holds transactionally from the
// caller's point of view. A failed local write after the debit is
// compensated: the points come back and the prior selection is restored.
func (m *ItemManager) Purchase(ctx context.Context, userID, itemName string) (*model.PurchasedItem, error) {
	entry, ok := model.LookupCatalog(itemName)
	if !ok {
		return nil, fmt.Errorf("%w: unknown catalog item %q", model.ErrValidation, itemName)
	}
	prev, err := m.Selected(ctx)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}
	if _, err := m.profiles.SpendPoints(ctx, userID, entry.Price); err != nil {
		return nil, err
	}
	if _, err := m.deps.Store.Items().UnselectAll(ctx); err != nil {
		m.refund(ctx, userID, entry.Price)
		return nil, err
	}
	it := &model.PurchasedItem{
		ID:         uuid.New().String(),
		ItemName:   entry.Name,
		IsSelected: true,
		NeedsSync:  true,
	}
	if err := m.deps.Store.Items().Put(ctx, it); err != nil {
		m.restoreSelection(ctx, prev)
		m.refund(ctx, userID, entry.Price)
		return nil, err
	}
	m.deps.publishChanged(model.KindItem)
	m.deps.submitPush(model.KindItem, pushByIDJob(m.eng, it.ID))
	return it, nil
}

// refund returns a debited purchase price after a failed purchase write.
func (m *ItemManager) refund(ctx context.Context, userID string, price int) {
	if _, err := m.profiles.AwardPoints(ctx, userID, price); err != nil {
		m.deps.Log.Error().Err(err).Int("points", price).Msg("refund after failed purchase did not apply")
	}
}

// restoreSelection re-selects the item that was selected before a failed
// mutation. A nil prev means nothing was selected.
func (m *ItemManager) restoreSelection(ctx context.Context, prev *model.PurchasedItem) {
	if prev == nil {
		return
	}
	prev.IsSelected = true
	prev.NeedsSync = true
	if err := m.deps.Store.Items().Put(ctx, prev); err != nil {
		m.deps.Log.Error().Err(err).Str("itemId", prev.ID).Msg("could not restore prior selection")
	}
}

// Select makes the given item the selection, unselecting every other item.
func (m *ItemManager) Select(ctx context.Context, id string) (*model.PurchasedItem, error) {
	it, err := m.deps.Store.Items().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	prev, err := m.Selected(ctx)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}
	if _, err := m.deps.Store.Items().UnselectAll(ctx); err != nil {
		return nil, err
	}
	it.IsSelected = true
	it.NeedsSync = true
	if err := m.deps.Store.Items().Put(ctx, it); err != nil {
		m.restoreSelection(ctx, prev)
		return nil, err
	}
	m.deps.publishChanged(model.KindItem)
	m.deps.submitPush(model.KindItem, pushByIDJob(m.eng, it.ID))
	return it, nil
}

// Delete removes the item locally and registers it for remote deletion.
func (m *ItemManager) Delete(ctx context.Context, it *model.PurchasedItem) error {
	if err := m.deps.Store.Items().Delete(ctx, it.ID); err != nil {
		return err
	}
	if err := m.deps.Registry.Add(ctx, model.KindItem, it.ID); err != nil {
		return err
	}
	m.deps.publishChanged(model.KindItem)
	if m.deps.online() {
		m.deps.submitPush(model.KindItem, deleteJob(m.eng, it.ID))
	}
	return nil
}

func (m *ItemManager) List(ctx context.Context) ([]*model.PurchasedItem, error) {
	return m.deps.Store.Items().List(ctx)
}

// Selected returns the current selection, or model.ErrNotFound if no item
// is selected.
func (m *ItemManager) Selected(ctx context.Context) (*model.PurchasedItem, error) {
	items, err := m.deps.Store.Items().List(ctx)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if it.IsSelected {
			return it, nil
		}
	}
	return nil, model.ErrNotFound
}

func (m *ItemManager) Kind() model.Kind { return model.KindItem }

func (m *ItemManager) SyncPendingDeletions(ctx context.Context) error {
	return m.eng.syncPendingDeletions(ctx)
}

func (m *ItemManager) SyncPendingEdits(ctx context.Context) error {
	return m.eng.syncPendingEdits(ctx)
}

func (m *ItemManager) FetchAndReconcile(ctx context.Context) ([]*model.PurchasedItem, error) {
	out, err := m.eng.fetchAndReconcile(ctx)
	if err == nil {
		m.deps.publishChanged(model.KindItem)
	}
	return out, err
}

func (m *ItemManager) Reconcile(ctx context.Context) error {
	_, err := m.FetchAndReconcile(ctx)
	return err
}

func (m *ItemManager) TakeSoftError() string { return m.eng.takeSoftError() }
