package business

import (
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"vaultcontrol/internal/models"
	dbconfig "vaultcontrol/pkg/config"
	"vaultcontrol/pkg/strategy"
)

// Queue names shared by the API, the keeper worker and the scheduler.
const (
	QueueVaultEvents    = "vault_events"
	QueueReportRequests = "vault_report_requests"
)

// ReportRequest is one queued unit of keeper work.
type ReportRequest struct {
	VaultID uint   `json:"vault_id"`
	Caller  string `json:"caller"`
}

// EventPublisher is what the runtime needs from the message broker.
// *config.Publisher satisfies it; a nil publisher disables events.
type EventPublisher interface {
	Publish(queueName string, message interface{}) error
}

// Registry holds one runtime per vault. Runtimes are built lazily from
// active configs and evicted when a config changes.
type Registry struct {
	mu       sync.RWMutex
	runtimes map[uint]*Runtime
	feeds    *strategy.RatefeedManager
	auth     Authorizer
	pub      EventPublisher
}

// Vaults is the process-wide registry, wired in main.
var Vaults *Registry

// InitRegistry builds the global registry and warms it with every
// active vault config. The publisher may be nil when RabbitMQ is not
// configured.
func InitRegistry(pub EventPublisher) error {
	Vaults = NewRegistry(pub)
	return Vaults.LoadActive()
}

func NewRegistry(pub EventPublisher) *Registry {
	return &Registry{
		runtimes: make(map[uint]*Runtime),
		feeds:    strategy.NewRatefeedManager(),
		auth:     AccessKeyAuthorizer{},
		pub:      pub,
	}
}

// LoadActive builds runtimes for every active vault config.
func (r *Registry) LoadActive() error {
	var configs []models.VaultConfig
	if err := dbconfig.DB.Where("is_active = ?", true).Find(&configs).Error; err != nil {
		return err
	}
	for i := range configs {
		if _, err := r.buildAndStore(&configs[i]); err != nil {
			log.WithFields(log.Fields{
				"vault_id": configs[i].ID,
				"error":    err.Error(),
			}).Warnf("Skipping vault: runtime construction failed")
		}
	}
	log.Infof("Vault registry loaded %d active vaults", len(r.snapshot()))
	return nil
}

// Get returns the runtime for a vault, loading its config on demand.
// An unknown or inactive vault surfaces gorm.ErrRecordNotFound so
// handlers can answer 404.
func (r *Registry) Get(vaultID uint) (*Runtime, error) {
	r.mu.RLock()
	rt, ok := r.runtimes[vaultID]
	r.mu.RUnlock()
	if ok {
		return rt, nil
	}

	var cfg models.VaultConfig
	if err := dbconfig.DB.First(&cfg, vaultID).Error; err != nil {
		return nil, err
	}
	if !cfg.IsActive {
		return nil, gorm.ErrRecordNotFound
	}
	return r.buildAndStore(&cfg)
}

// Invalidate drops a vault's runtime so the next Get rebuilds it from
// the current config. Called after config updates.
func (r *Registry) Invalidate(vaultID uint) {
	r.mu.Lock()
	delete(r.runtimes, vaultID)
	r.mu.Unlock()
}

// ActiveIDs lists the vaults the registry currently serves.
func (r *Registry) ActiveIDs() []uint {
	ids := make([]uint, 0)
	for id := range r.snapshot() {
		ids = append(ids, id)
	}
	return ids
}

func (r *Registry) buildAndStore(cfg *models.VaultConfig) (*Runtime, error) {
	source, err := strategy.ForConfig(cfg, r.feeds)
	if err != nil {
		return nil, err
	}
	rt, err := newRuntime(cfg, source, r.auth, r.pub)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.runtimes[cfg.ID]; ok {
		return existing, nil
	}
	r.runtimes[cfg.ID] = rt
	return rt, nil
}

func (r *Registry) snapshot() map[uint]*Runtime {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[uint]*Runtime, len(r.runtimes))
	for id, rt := range r.runtimes {
		out[id] = rt
	}
	return out
}

// PublishReportRequest enqueues keeper work for one vault.
func PublishReportRequest(pub EventPublisher, vaultID uint, caller string) error {
	if pub == nil {
		return errors.New("report request publisher not initialized")
	}
	return pub.Publish(QueueReportRequests, ReportRequest{VaultID: vaultID, Caller: caller})
}
