package business

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	sdkmath "cosmossdk.io/math"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"vaultcontrol/internal/models"
	"vaultcontrol/internal/vault"
	dbconfig "vaultcontrol/pkg/config"
	"vaultcontrol/pkg/strategy"
)

// Runtime is one vault's end-to-end operation path: it guards entry,
// hydrates the working set from the database, applies the core
// operation, persists every touched row in a single transaction and
// publishes events once the transaction commits.
type Runtime struct {
	cfg    *models.VaultConfig
	policy vault.Policy
	source strategy.Source
	auth   Authorizer
	pub    EventPublisher

	// entry admits one operation at a time. A second entry while one
	// is in flight is rejected outright, never queued.
	entry sync.Mutex
}

func newRuntime(cfg *models.VaultConfig, source strategy.Source, auth Authorizer, pub EventPublisher) (*Runtime, error) {
	policy, err := vault.PolicyFor(cfg.Policy)
	if err != nil {
		return nil, err
	}
	return &Runtime{
		cfg:    cfg,
		policy: policy,
		source: source,
		auth:   auth,
		pub:    pub,
	}, nil
}

// Config exposes the runtime's vault config to handlers.
func (r *Runtime) Config() *models.VaultConfig {
	return r.cfg
}

// OperationResult is what a depositor operation hands back to the API.
type OperationResult struct {
	VaultID     uint        `json:"vault_id"`
	Owner       string      `json:"owner"`
	Assets      sdkmath.Int `json:"assets"`
	Shares      sdkmath.Int `json:"shares"`
	TotalAssets sdkmath.Int `json:"total_assets"`
	TotalSupply sdkmath.Int `json:"total_supply"`
	UnlockTime  *time.Time  `json:"unlock_time,omitempty"`
}

// RageQuitResult reports the cooldown window a rage quit opened.
type RageQuitResult struct {
	VaultID    uint      `json:"vault_id"`
	Owner      string    `json:"owner"`
	UnlockTime time.Time `json:"unlock_time"`
	Cooldown   int64     `json:"cooldown_seconds"`
}

// creditSpec describes one entry operation: deposits fix the asset
// amount, mints fix the share amount, a positive duration adds a
// lockup.
type creditSpec struct {
	event    string
	amount   sdkmath.Int
	duration time.Duration
}

// debitSpec describes one exit operation: withdrawals fix the asset
// amount, redemptions fix the share amount.
type debitSpec struct {
	event  string
	amount sdkmath.Int
}

// Deposit exchanges assets for shares.
func (r *Runtime) Deposit(ctx context.Context, owner string, assets sdkmath.Int) (*OperationResult, error) {
	return r.credit(ctx, owner, creditSpec{event: vault.EventDeposit, amount: assets})
}

// DepositWithLockup deposits and locks the minted shares.
func (r *Runtime) DepositWithLockup(ctx context.Context, owner string, assets sdkmath.Int, duration time.Duration) (*OperationResult, error) {
	return r.credit(ctx, owner, creditSpec{event: vault.EventDeposit, amount: assets, duration: duration})
}

// Mint issues an exact share amount against the assets it charges.
func (r *Runtime) Mint(ctx context.Context, owner string, shares sdkmath.Int) (*OperationResult, error) {
	return r.credit(ctx, owner, creditSpec{event: vault.EventMint, amount: shares})
}

// MintWithLockup mints and locks the issued shares.
func (r *Runtime) MintWithLockup(ctx context.Context, owner string, shares sdkmath.Int, duration time.Duration) (*OperationResult, error) {
	return r.credit(ctx, owner, creditSpec{event: vault.EventMint, amount: shares, duration: duration})
}

// Withdraw releases an exact asset amount.
func (r *Runtime) Withdraw(ctx context.Context, owner string, assets sdkmath.Int) (*OperationResult, error) {
	return r.debit(owner, debitSpec{event: vault.EventWithdraw, amount: assets})
}

// Redeem burns an exact share amount.
func (r *Runtime) Redeem(ctx context.Context, owner string, shares sdkmath.Int) (*OperationResult, error) {
	return r.debit(owner, debitSpec{event: vault.EventRedeem, amount: shares})
}

// credit runs one entry operation end to end.
func (r *Runtime) credit(ctx context.Context, owner string, spec creditSpec) (*OperationResult, error) {
	// 1. Reentrancy gate
	if !r.entry.TryLock() {
		return nil, vault.ErrReentrancy
	}
	defer r.entry.Unlock()

	// 2. Allowlist check on entry
	if r.cfg.AllowlistEnabled {
		if err := r.auth.AuthorizeDepositor(owner); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()

	// 3. Skimming vaults recognize pending yield before pricing the
	// entry, so unrecognized appreciation cannot leak to the new
	// depositor. A failed harvest fails the whole operation.
	var pending *vault.Valuation
	if r.policy.Kind() == vault.PolicySkimming {
		val, err := r.harvest(ctx)
		if err != nil {
			return nil, fmt.Errorf("pre-deposit report failed: %w", err)
		}
		pending = &val
	}

	var result *OperationResult
	var events []vault.Event

	// 4. Apply and persist in one transaction
	err := dbconfig.DB.Transaction(func(tx *gorm.DB) error {
		state, err := r.loadState(tx)
		if err != nil {
			return err
		}
		core := r.coreVault(state)

		if pending != nil {
			obs, err := r.applyReport(tx, state, &core, *pending, owner, now)
			if err != nil {
				return err
			}
			events = append(events, r.reportEvent(obs))
		}

		balRow, lockRow, acct, err := r.loadAccount(tx, owner)
		if err != nil {
			return err
		}

		var assets, shares sdkmath.Int
		switch spec.event {
		case vault.EventDeposit:
			assets = spec.amount
			if spec.duration > 0 {
				shares, err = core.DepositWithLockup(&acct, assets, spec.duration, now)
			} else {
				shares, err = core.Deposit(&acct, assets)
			}
		case vault.EventMint:
			shares = spec.amount
			if spec.duration > 0 {
				assets, err = core.MintWithLockup(&acct, shares, spec.duration, now)
			} else {
				assets, err = core.Mint(&acct, shares)
			}
		default:
			err = fmt.Errorf("unknown credit operation %q", spec.event)
		}
		if err != nil {
			return err
		}

		if err := r.persistState(tx, state, core.Totals); err != nil {
			return err
		}
		if err := persistBalance(tx, balRow, acct.Balance); err != nil {
			return err
		}
		if spec.duration > 0 {
			if err := persistLockup(tx, lockRow, acct.Lockup); err != nil {
				return err
			}
		}

		result = &OperationResult{
			VaultID:     r.cfg.ID,
			Owner:       owner,
			Assets:      assets,
			Shares:      shares,
			TotalAssets: core.Totals.Assets,
			TotalSupply: core.Totals.Supply,
		}
		events = append(events, r.ownerEvent(spec.event, owner, assets, shares, core.Totals, now))
		if spec.duration > 0 {
			unlockAt := acct.Lockup.UnlockTime
			result.UnlockTime = &unlockAt
			ev := r.ownerEvent(vault.EventLockupExtended, owner, sdkmath.ZeroInt(), shares, core.Totals, now)
			ev.UnlockTime = &unlockAt
			events = append(events, ev)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 5. Events go out only after the transaction commits
	r.publishEvents(events)
	return result, nil
}

// debit runs one exit operation end to end. Exits never consult the
// allowlist: removal from the list must not trap funds.
func (r *Runtime) debit(owner string, spec debitSpec) (*OperationResult, error) {
	// 1. Reentrancy gate
	if !r.entry.TryLock() {
		return nil, vault.ErrReentrancy
	}
	defer r.entry.Unlock()

	now := time.Now().UTC()

	var result *OperationResult
	var events []vault.Event

	// 2. Apply and persist in one transaction
	err := dbconfig.DB.Transaction(func(tx *gorm.DB) error {
		state, err := r.loadState(tx)
		if err != nil {
			return err
		}
		core := r.coreVault(state)

		balRow, _, acct, err := r.loadAccount(tx, owner)
		if err != nil {
			return err
		}

		var assets, shares sdkmath.Int
		switch spec.event {
		case vault.EventWithdraw:
			assets = spec.amount
			shares, err = core.Withdraw(&acct, assets, now)
		case vault.EventRedeem:
			shares = spec.amount
			assets, err = core.Redeem(&acct, shares, now)
		default:
			err = fmt.Errorf("unknown debit operation %q", spec.event)
		}
		if err != nil {
			return err
		}

		if err := r.persistState(tx, state, core.Totals); err != nil {
			return err
		}
		if err := persistBalance(tx, balRow, acct.Balance); err != nil {
			return err
		}

		result = &OperationResult{
			VaultID:     r.cfg.ID,
			Owner:       owner,
			Assets:      assets,
			Shares:      shares,
			TotalAssets: core.Totals.Assets,
			TotalSupply: core.Totals.Supply,
		}
		events = append(events, r.ownerEvent(spec.event, owner, assets, shares, core.Totals, now))
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 3. Events go out only after the transaction commits
	r.publishEvents(events)
	return result, nil
}

// RageQuit opens the early-exit cooldown on the owner's lockup.
func (r *Runtime) RageQuit(ctx context.Context, owner string) (*RageQuitResult, error) {
	if !r.entry.TryLock() {
		return nil, vault.ErrReentrancy
	}
	defer r.entry.Unlock()

	now := time.Now().UTC()

	var result *RageQuitResult
	var events []vault.Event

	err := dbconfig.DB.Transaction(func(tx *gorm.DB) error {
		state, err := r.loadState(tx)
		if err != nil {
			return err
		}
		core := r.coreVault(state)

		_, lockRow, acct, err := r.loadAccount(tx, owner)
		if err != nil {
			return err
		}
		if err := core.InitiateRageQuit(&acct, now); err != nil {
			return err
		}
		if err := persistLockup(tx, lockRow, acct.Lockup); err != nil {
			return err
		}

		result = &RageQuitResult{
			VaultID:    r.cfg.ID,
			Owner:      owner,
			UnlockTime: acct.Lockup.UnlockTime,
			Cooldown:   r.cfg.RageQuitCooldown,
		}
		ev := r.ownerEvent(vault.EventRageQuitInitiated, owner, sdkmath.ZeroInt(), acct.Lockup.LockedShares, core.Totals, now)
		unlockAt := acct.Lockup.UnlockTime
		ev.UnlockTime = &unlockAt
		events = append(events, ev)
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.publishEvents(events)
	return result, nil
}

// Report harvests the strategy and applies the vault's report policy.
// Only keepers may call it.
func (r *Runtime) Report(ctx context.Context, caller Caller) (*vault.Observation, error) {
	// 1. Reentrancy gate
	if !r.entry.TryLock() {
		return nil, vault.ErrReentrancy
	}
	defer r.entry.Unlock()

	// 2. Keeper check at the entry point
	if err := r.auth.AuthorizeKeeper(caller); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	// 3. Harvest outside the transaction; the source may hit the network
	val, err := r.harvest(ctx)
	if err != nil {
		return nil, err
	}

	// 4. Apply and persist
	var obs vault.Observation
	var events []vault.Event
	err = dbconfig.DB.Transaction(func(tx *gorm.DB) error {
		state, err := r.loadState(tx)
		if err != nil {
			return err
		}
		core := r.coreVault(state)

		obs, err = r.applyReport(tx, state, &core, val, callerLabel(caller), now)
		if err != nil {
			return err
		}
		if err := r.persistState(tx, state, core.Totals); err != nil {
			return err
		}
		events = append(events, r.reportEvent(obs))
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 5. Events go out only after the transaction commits
	r.publishEvents(events)
	return &obs, nil
}

// applyReport runs the policy against the hydrated working set: it
// loads the router balance, applies the outcome to the core, persists
// the router row, stamps the state row and appends the history record.
// The caller persists the state row afterwards.
func (r *Runtime) applyReport(tx *gorm.DB, state *models.VaultState, core *vault.Vault, val vault.Valuation, caller string, now time.Time) (vault.Observation, error) {
	routerRow, err := loadBalance(tx, r.cfg.ID, r.cfg.RouterAddress)
	if err != nil {
		return vault.Observation{}, err
	}
	routerAcct := vault.Account{Balance: routerRow.Shares.Int}

	obs, err := core.Report(&routerAcct, val, now)
	if err != nil {
		return vault.Observation{}, err
	}

	if err := persistBalance(tx, routerRow, routerAcct.Balance); err != nil {
		return vault.Observation{}, err
	}

	reportedAt := obs.ReportedAt
	state.LastReportAt = &reportedAt
	state.ReportCount++
	if !val.NewRate.IsNil() && val.NewRate.IsPositive() {
		state.LastRate = models.NewAmount(val.NewRate)
	}

	record := models.ReportRecord{
		VaultID:          r.cfg.ID,
		Policy:           string(obs.Policy),
		Profit:           models.NewAmount(obs.Profit),
		Loss:             models.NewAmount(obs.Loss),
		MintedShares:     models.NewAmount(obs.MintedShares),
		BurnedShares:     models.NewAmount(obs.BurnedShares),
		DeltaAtOldRate:   models.NewAmount(obs.DeltaAtOldRate),
		TotalAssetsAfter: models.NewAmount(obs.TotalAssets),
		TotalSupplyAfter: models.NewAmount(obs.TotalSupply),
		Caller:           caller,
	}
	if err := tx.Create(&record).Error; err != nil {
		return vault.Observation{}, err
	}

	log.WithFields(log.Fields{
		"vault_id": r.cfg.ID,
		"policy":   obs.Policy,
		"profit":   obs.Profit.String(),
		"loss":     obs.Loss.String(),
		"minted":   obs.MintedShares.String(),
		"burned":   obs.BurnedShares.String(),
	}).Info("Applied vault report")

	return obs, nil
}

// harvest asks the source for a valuation against the persisted state.
func (r *Runtime) harvest(ctx context.Context) (vault.Valuation, error) {
	state, err := r.readState(dbconfig.DB)
	if err != nil {
		return vault.Valuation{}, err
	}
	return r.source.HarvestAndReport(ctx, strategy.HarvestRequest{
		VaultID:     r.cfg.ID,
		Policy:      r.cfg.Policy,
		TotalAssets: state.TotalAssets.Int,
		TotalSupply: state.TotalSupply.Int,
		LastRate:    state.LastRate.Int,
	})
}

// --- views ---

// OwnerSnapshot bundles every per-owner view the API serves.
type OwnerSnapshot struct {
	Owner             string      `json:"owner"`
	Balance           sdkmath.Int `json:"balance"`
	Unlocked          sdkmath.Int `json:"unlocked"`
	MaxWithdraw       sdkmath.Int `json:"max_withdraw"`
	MaxRedeem         sdkmath.Int `json:"max_redeem"`
	UnlockTime        *time.Time  `json:"unlock_time,omitempty"`
	LockedShares      sdkmath.Int `json:"locked_shares"`
	RageQuit          bool        `json:"rage_quit"`
	RemainingCooldown int64       `json:"remaining_cooldown_seconds"`
}

// State reads the vault's totals row without creating it.
func (r *Runtime) State() (*models.VaultState, error) {
	return r.readState(dbconfig.DB)
}

// PricePerShare is the floor asset value of one whole share.
func (r *Runtime) PricePerShare() (sdkmath.Int, error) {
	state, err := r.readState(dbconfig.DB)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	core := r.coreVault(state)
	return core.PricePerShare(r.cfg.Decimals)
}

// OwnerSnapshot reads one owner's position at now.
func (r *Runtime) OwnerSnapshot(owner string, now time.Time) (*OwnerSnapshot, error) {
	state, err := r.readState(dbconfig.DB)
	if err != nil {
		return nil, err
	}
	core := r.coreVault(state)

	acct, lockedAt, err := r.readAccount(dbconfig.DB, owner)
	if err != nil {
		return nil, err
	}

	info := core.LockupInfo(&acct, now)
	maxWithdraw, err := core.MaxWithdraw(&acct, now)
	if err != nil {
		return nil, err
	}

	snap := &OwnerSnapshot{
		Owner:             owner,
		Balance:           info.TotalShares,
		Unlocked:          info.WithdrawableShares,
		MaxWithdraw:       maxWithdraw,
		MaxRedeem:         core.MaxRedeem(&acct, now),
		LockedShares:      info.LockedShares,
		RageQuit:          info.RageQuit,
		RemainingCooldown: int64(core.RemainingCooldown(&acct, now) / time.Second),
	}
	if lockedAt != nil {
		snap.UnlockTime = lockedAt
	}
	return snap, nil
}

// Reports pages the vault's report history, newest first.
func (r *Runtime) Reports(limit int) ([]models.ReportRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var records []models.ReportRecord
	err := dbconfig.DB.Where("vault_id = ?", r.cfg.ID).
		Order("id DESC").Limit(limit).Find(&records).Error
	return records, err
}

// --- hydration ---

// loadState fetches the totals row for writing, creating it on the
// vault's first operation.
func (r *Runtime) loadState(tx *gorm.DB) (*models.VaultState, error) {
	var state models.VaultState
	err := tx.Where(models.VaultState{VaultID: r.cfg.ID}).
		Attrs(models.VaultState{
			TotalAssets: models.ZeroAmount(),
			TotalSupply: models.ZeroAmount(),
			LastRate:    models.ZeroAmount(),
		}).
		FirstOrCreate(&state).Error
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// readState is the read-only variant: an absent row reads as an empty
// vault instead of creating one.
func (r *Runtime) readState(db *gorm.DB) (*models.VaultState, error) {
	var state models.VaultState
	err := db.Where("vault_id = ?", r.cfg.ID).First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.VaultState{
			VaultID:     r.cfg.ID,
			TotalAssets: models.ZeroAmount(),
			TotalSupply: models.ZeroAmount(),
			LastRate:    models.ZeroAmount(),
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// loadAccount fetches an owner's balance and lockup rows for writing,
// creating them on first touch.
func (r *Runtime) loadAccount(tx *gorm.DB, owner string) (*models.ShareBalance, *models.LockupRecord, vault.Account, error) {
	balRow, err := loadBalance(tx, r.cfg.ID, owner)
	if err != nil {
		return nil, nil, vault.Account{}, err
	}

	var lockRow models.LockupRecord
	err = tx.Where(models.LockupRecord{VaultID: r.cfg.ID, Owner: owner}).
		Attrs(models.LockupRecord{LockedShares: models.ZeroAmount()}).
		FirstOrCreate(&lockRow).Error
	if err != nil {
		return nil, nil, vault.Account{}, err
	}

	return balRow, &lockRow, accountFromRows(balRow, &lockRow), nil
}

// readAccount is the read-only variant for views. The second return is
// the lockup row's unlock time pointer, nil when the owner never locked.
func (r *Runtime) readAccount(db *gorm.DB, owner string) (vault.Account, *time.Time, error) {
	balRow := &models.ShareBalance{Shares: models.ZeroAmount()}
	err := db.Where("vault_id = ? AND owner = ?", r.cfg.ID, owner).First(balRow).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return vault.Account{}, nil, err
	}

	lockRow := &models.LockupRecord{LockedShares: models.ZeroAmount()}
	err = db.Where("vault_id = ? AND owner = ?", r.cfg.ID, owner).First(lockRow).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return vault.Account{}, nil, err
	}

	return accountFromRows(balRow, lockRow), lockRow.UnlockTime, nil
}

func loadBalance(tx *gorm.DB, vaultID uint, owner string) (*models.ShareBalance, error) {
	var row models.ShareBalance
	err := tx.Where(models.ShareBalance{VaultID: vaultID, Owner: owner}).
		Attrs(models.ShareBalance{Shares: models.ZeroAmount()}).
		FirstOrCreate(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func accountFromRows(bal *models.ShareBalance, lock *models.LockupRecord) vault.Account {
	acct := vault.Account{
		Balance: bal.Shares.Int,
		Lockup: vault.Lockup{
			LockedShares: lock.LockedShares.Int,
			RageQuit:     lock.RageQuit,
		},
	}
	if lock.UnlockTime != nil {
		acct.Lockup.UnlockTime = *lock.UnlockTime
	}
	return acct
}

// coreVault builds the in-memory operation surface over a state row.
func (r *Runtime) coreVault(state *models.VaultState) vault.Vault {
	v := vault.Vault{
		Totals:            vault.NewTotals(state.TotalAssets.Int, state.TotalSupply.Int),
		Policy:            r.policy,
		MinLockupDuration: time.Duration(r.cfg.MinLockupDuration) * time.Second,
		RageQuitCooldown:  time.Duration(r.cfg.RageQuitCooldown) * time.Second,
	}
	if state.LastReportAt != nil {
		v.LastReport = *state.LastReportAt
	}
	return v
}

// --- persistence ---

func (r *Runtime) persistState(tx *gorm.DB, state *models.VaultState, t vault.Totals) error {
	state.TotalAssets = models.NewAmount(t.Assets)
	state.TotalSupply = models.NewAmount(t.Supply)
	return tx.Save(state).Error
}

func persistBalance(tx *gorm.DB, row *models.ShareBalance, shares sdkmath.Int) error {
	row.Shares = models.NewAmount(shares)
	return tx.Save(row).Error
}

func persistLockup(tx *gorm.DB, row *models.LockupRecord, l vault.Lockup) error {
	unlockAt := l.UnlockTime
	row.UnlockTime = &unlockAt
	row.LockedShares = models.NewAmount(l.LockedShares)
	row.RageQuit = l.RageQuit
	return tx.Save(row).Error
}

// --- events ---

func (r *Runtime) ownerEvent(kind, owner string, assets, shares sdkmath.Int, t vault.Totals, now time.Time) vault.Event {
	return vault.Event{
		Type:        kind,
		VaultID:     r.cfg.ID,
		Owner:       owner,
		Assets:      assets,
		Shares:      shares,
		Profit:      sdkmath.ZeroInt(),
		Loss:        sdkmath.ZeroInt(),
		TotalAssets: t.Assets,
		TotalSupply: t.Supply,
		OccurredAt:  now,
	}
}

func (r *Runtime) reportEvent(obs vault.Observation) vault.Event {
	return vault.Event{
		Type:        vault.EventReport,
		VaultID:     r.cfg.ID,
		Owner:       r.cfg.RouterAddress,
		Assets:      sdkmath.ZeroInt(),
		Shares:      obs.MintedShares.Sub(obs.BurnedShares),
		Profit:      obs.Profit,
		Loss:        obs.Loss,
		TotalAssets: obs.TotalAssets,
		TotalSupply: obs.TotalSupply,
		OccurredAt:  obs.ReportedAt,
	}
}

func (r *Runtime) publishEvents(events []vault.Event) {
	if r.pub == nil || len(events) == 0 {
		return
	}
	for i := range events {
		if err := r.pub.Publish(QueueVaultEvents, events[i]); err != nil {
			log.Warnf("Failed to publish %s event for vault %d: %v", events[i].Type, events[i].VaultID, err)
		}
	}
}

func callerLabel(caller Caller) string {
	if caller.Address != "" {
		return caller.Address
	}
	return "keeper"
}
