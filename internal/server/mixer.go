package server

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/bernatvadell/muonline-sub002/internal/auditlog"
	"github.com/bernatvadell/muonline-sub002/internal/config"
	"github.com/bernatvadell/muonline-sub002/internal/inventory"
	"github.com/bernatvadell/muonline-sub002/internal/item"
	"github.com/bernatvadell/muonline-sub002/internal/mix"
	"github.com/bernatvadell/muonline-sub002/internal/network"
)

var (
	errMixNotOpen  = errors.New("no mix window is open")
	errRateLimited = errors.New("too many mix evaluations")
	errInvalidItem = errors.New("item group or index out of range")
)

// auditSink receives one entry per evaluation.
type auditSink interface {
	Write(e auditlog.Entry) error
}

// mixer holds the mix window state of one connection.
type mixer struct {
	engine   *mix.Engine
	registry *item.Registry
	results  *cache.Cache
	audit    auditSink
	limiter  *rate.Limiter
	playerID string
	width    int
	height   int

	mu        sync.Mutex
	facility  mix.Facility
	charLevel int
	box       *inventory.Box
}

func newMixer(engine *mix.Engine, registry *item.Registry, results *cache.Cache, audit auditSink, playerID string, cfg config.MixConfig) *mixer {
	limit := cfg.RateLimit
	if limit <= 0 {
		limit = 60
	}
	return &mixer{
		engine:   engine,
		registry: registry,
		results:  results,
		audit:    audit,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(limit)), limit),
		playerID: playerID,
		width:    cfg.BoxWidth,
		height:   cfg.BoxHeight,
	}
}

// open starts a fresh mix window for a facility. Items no recipe of the
// facility can use are refused by the box.
func (m *mixer) open(f mix.Facility, charLevel int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.facility = f
	m.charLevel = charLevel
	m.box = inventory.New(m.width, m.height,
		inventory.WithSizer(m.registry),
		inventory.WithFilter(func(it item.Item) bool { return m.engine.IsSource(f, it) }),
	)
}

func (m *mixer) add(it item.Item, pos *inventory.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.box == nil {
		return errMixNotOpen
	}
	if !it.Valid() {
		return errInvalidItem
	}
	_, err := m.box.Add(it, pos)
	return err
}

func (m *mixer) remove(index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.box == nil {
		return errMixNotOpen
	}
	_, err := m.box.Remove(index)
	return err
}

func (m *mixer) clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.box == nil {
		return errMixNotOpen
	}
	m.box.Clear()
	return nil
}

func (m *mixer) state() (network.MixStatePayload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.box == nil {
		return network.MixStatePayload{}, errMixNotOpen
	}
	stacks := make([]inventory.Stack, len(m.box.Stacks))
	copy(stacks, m.box.Stacks)
	return network.MixStatePayload{
		Facility: string(m.facility),
		Width:    m.box.Width,
		Height:   m.box.Height,
		Items:    stacks,
	}, nil
}

// evaluate resolves the current box contents. Results are shared between
// connections through the cache.
func (m *mixer) evaluate() (network.MixResultPayload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.box == nil {
		return network.MixResultPayload{}, errMixNotOpen
	}
	if !m.limiter.Allow() {
		return network.MixResultPayload{}, errRateLimited
	}

	items := m.box.Items()
	key := cacheKey(m.facility, items)
	var res mix.Result
	if v, ok := m.results.Get(key); ok {
		res = v.(mix.Result)
	} else {
		res = m.engine.Evaluate(m.facility, items)
		m.results.SetDefault(key, res)
	}

	if m.audit != nil {
		if err := m.audit.Write(auditlog.NewEntry(m.playerID, m.facility, len(items), res)); err != nil {
			log.Printf("Failed to write mix audit entry: %v", err)
		}
	}
	return network.NewMixResult(res, m.charLevel), nil
}

// cacheKey identifies an evaluation by facility and the ordered item list.
// Order matters because slots consume items greedily.
func cacheKey(f mix.Facility, items []item.Item) string {
	data, _ := json.Marshal(items)
	sum := sha256.Sum256(data)
	return string(f) + ":" + hex.EncodeToString(sum[:])
}
