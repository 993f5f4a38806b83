package physics

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
)

type BroadPhaseCategory int

const (
	BroadPhaseDynamic BroadPhaseCategory = iota
	BroadPhaseStatic
	BroadPhaseCategoryCount
)

var (
	ErrBroadPhaseOccupied  = errors.New("broad phase category already occupied")
	ErrUnknownBroadPhase   = errors.New("unknown broad phase type")
	ErrInvalidCategory     = errors.New("invalid broad phase category")
	ErrDuplicateBroadPhase = errors.New("broad phase type already registered")
)

func (c BroadPhaseCategory) String() string {
	switch c {
	case BroadPhaseDynamic:
		return "Dynamic"
	case BroadPhaseStatic:
		return "Static"
	}
	return fmt.Sprint("BroadPhaseCategory(", int(c), ")")
}

func ParseBroadPhaseCategory(s string) (BroadPhaseCategory, error) {
	switch s {
	case "Dynamic":
		return BroadPhaseDynamic, nil
	case "Static":
		return BroadPhaseStatic, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

type BroadPhaseCreator func() BroadPhase

// BroadPhaseRegistry maps type tags to constructors so saved dispatchers can
// be rebuilt.
type BroadPhaseRegistry struct {
	creators map[string]BroadPhaseCreator
}

func NewBroadPhaseRegistry() *BroadPhaseRegistry {
	r := &BroadPhaseRegistry{creators: map[string]BroadPhaseCreator{}}
	r.Register("NSquared", func() BroadPhase { return NewNSquared() })
	r.Register("BBTree", func() BroadPhase { return NewBBTree() })
	r.Register("SpaceHash", func() BroadPhase { return NewSpaceHash(DefaultSpaceHashCellSize, DefaultSpaceHashCells) })
	return r
}

func (r *BroadPhaseRegistry) Register(typeName string, creator BroadPhaseCreator) error {
	if _, ok := r.creators[typeName]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateBroadPhase, typeName)
	}
	r.creators[typeName] = creator
	return nil
}

func (r *BroadPhaseRegistry) Create(typeName string) (BroadPhase, error) {
	creator, ok := r.creators[typeName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBroadPhase, typeName)
	}
	return creator(), nil
}

var DefaultBroadPhaseRegistry = NewBroadPhaseRegistry()

// BroadPhaseDispatcher routes spatial queries to one dynamic and one static
// structure.
type BroadPhaseDispatcher struct {
	broadPhases [BroadPhaseCategoryCount]BroadPhase

	// RefineRayCast casts rays into the static structure first and clips
	// the dynamic cast at the closest static hit.
	RefineRayCast bool

	registry *BroadPhaseRegistry
}

func NewBroadPhaseDispatcher(registry *BroadPhaseRegistry) *BroadPhaseDispatcher {
	if registry == nil {
		registry = DefaultBroadPhaseRegistry
	}
	return &BroadPhaseDispatcher{registry: registry}
}

// NewDefaultBroadPhaseDispatcher uses a BBTree for both categories.
func NewDefaultBroadPhaseDispatcher() *BroadPhaseDispatcher {
	d := NewBroadPhaseDispatcher(nil)
	d.AddBroadPhase(BroadPhaseDynamic, NewBBTree())
	d.AddBroadPhase(BroadPhaseStatic, NewBBTree())
	d.RefineRayCast = true
	return d
}

// AddBroadPhase installs bp for category. A second structure for an occupied
// category is ignored.
func (d *BroadPhaseDispatcher) AddBroadPhase(category BroadPhaseCategory, bp BroadPhase) error {
	if category < 0 || category >= BroadPhaseCategoryCount {
		return fmt.Errorf("%w: %d", ErrInvalidCategory, category)
	}
	if d.broadPhases[category] != nil {
		log.Println("Warning: broad phase", category, "already holds a", d.broadPhases[category].TypeName(), "structure; ignoring", bp.TypeName())
		return fmt.Errorf("%w: %s", ErrBroadPhaseOccupied, category)
	}
	d.broadPhases[category] = bp
	return nil
}

func (d *BroadPhaseDispatcher) BroadPhase(category BroadPhaseCategory) BroadPhase {
	if category < 0 || category >= BroadPhaseCategoryCount {
		return nil
	}
	return d.broadPhases[category]
}

func (d *BroadPhaseDispatcher) dynamic() BroadPhase {
	return d.broadPhases[BroadPhaseDynamic]
}

func (d *BroadPhaseDispatcher) static() BroadPhase {
	return d.broadPhases[BroadPhaseStatic]
}

func (d *BroadPhaseDispatcher) CreateProxy(category BroadPhaseCategory, data BroadPhaseObjectData) BroadPhaseProxy {
	bp := d.BroadPhase(category)
	if bp == nil {
		log.Println("Warning: CreateProxy on empty broad phase", category)
		return InvalidProxy
	}
	return bp.CreateProxy(data)
}

func (d *BroadPhaseDispatcher) CreateProxies(category BroadPhaseCategory, data []BroadPhaseObjectData) []BroadPhaseProxy {
	bp := d.BroadPhase(category)
	if bp == nil {
		log.Println("Warning: CreateProxies on empty broad phase", category)
		return make([]BroadPhaseProxy, len(data))
	}
	return bp.CreateProxies(data)
}

func (d *BroadPhaseDispatcher) RemoveProxy(category BroadPhaseCategory, proxy BroadPhaseProxy) {
	if bp := d.BroadPhase(category); bp != nil {
		bp.RemoveProxy(proxy)
	}
}

func (d *BroadPhaseDispatcher) RemoveProxies(category BroadPhaseCategory, proxies []BroadPhaseProxy) {
	if bp := d.BroadPhase(category); bp != nil {
		bp.RemoveProxies(proxies)
	}
}

func (d *BroadPhaseDispatcher) UpdateProxy(category BroadPhaseCategory, proxy BroadPhaseProxy, data BroadPhaseObjectData) {
	if bp := d.BroadPhase(category); bp != nil {
		bp.UpdateProxy(proxy, data)
	}
}

func (d *BroadPhaseDispatcher) UpdateProxies(category BroadPhaseCategory, proxies []BroadPhaseProxy, data []BroadPhaseObjectData) {
	if bp := d.BroadPhase(category); bp != nil {
		bp.UpdateProxies(proxies, data)
	}
}

// SelfQuery only looks at dynamic objects; static objects never need to be
// paired with each other.
func (d *BroadPhaseDispatcher) SelfQuery(results *ClientPairs) {
	if bp := d.dynamic(); bp != nil {
		bp.SelfQuery(results)
	}
}

// Query tests data against the static structure.
func (d *BroadPhaseDispatcher) Query(data BroadPhaseObjectData, results *ClientPairs) {
	if bp := d.static(); bp != nil {
		bp.Query(data, results)
	}
}

func (d *BroadPhaseDispatcher) BatchQuery(data []BroadPhaseObjectData, results *ClientPairs) {
	if bp := d.static(); bp != nil {
		bp.BatchQuery(data, results)
	}
}

// QueryBoth tests data against the static and then the dynamic structure.
func (d *BroadPhaseDispatcher) QueryBoth(data BroadPhaseObjectData, results *ClientPairs) {
	if bp := d.static(); bp != nil {
		bp.Query(data, results)
	}
	if bp := d.dynamic(); bp != nil {
		bp.Query(data, results)
	}
}

// categories lists the structures a cast filter allows, dynamic first.
func (d *BroadPhaseDispatcher) categories(filter CastFilter) []BroadPhase {
	out := make([]BroadPhase, 0, BroadPhaseCategoryCount)
	if !filter.IsSet(IgnoreDynamic) && d.dynamic() != nil {
		out = append(out, d.dynamic())
	}
	if !filter.IsSet(IgnoreStatic) && d.static() != nil {
		out = append(out, d.static())
	}
	return out
}

func (d *BroadPhaseDispatcher) CastRay(ray Ray, results *CastResults) {
	filter := results.Filter()
	if filter.IsSet(IgnoreDynamic) && filter.IsSet(IgnoreStatic) {
		return
	}
	if d.RefineRayCast {
		d.refinedCastRay(ray, results)
		return
	}
	for _, bp := range d.categories(filter) {
		bp.CastRay(ray, results)
	}
}

// refinedCastRay finds the closest static hit first. The dynamic structure
// is then only searched up to that hit, and the static hit is merged back
// if there is room.
func (d *BroadPhaseDispatcher) refinedCastRay(ray Ray, results *CastResults) {
	filter := results.Filter()

	var staticHit *CastResult
	if static := d.static(); static != nil && !filter.IsSet(IgnoreStatic) {
		staticResults := NewCastResults(1, filter)
		static.CastRay(ray, staticResults)
		if staticResults.Len() > 0 {
			staticHit = &staticResults.Items()[0]
		}
	}

	if dynamic := d.dynamic(); dynamic != nil && !filter.IsSet(IgnoreDynamic) {
		if staticHit == nil {
			dynamic.CastRay(ray, results)
		} else {
			dynamic.CastSegment(Segment{Start: ray.Start, End: ray.PointAt(staticHit.T)}, results)
		}
	}

	if staticHit != nil && results.RemainingSize() > 0 {
		results.AddItem(*staticHit)
	}
}

func (d *BroadPhaseDispatcher) CastSegment(segment Segment, results *CastResults) {
	for _, bp := range d.categories(results.Filter()) {
		bp.CastSegment(segment, results)
	}
}

func (d *BroadPhaseDispatcher) CastAabb(bb Aabb, results *CastResults) {
	for _, bp := range d.categories(results.Filter()) {
		bp.CastAabb(bb, results)
	}
}

func (d *BroadPhaseDispatcher) CastSphere(sphere Sphere, results *CastResults) {
	for _, bp := range d.categories(results.Filter()) {
		bp.CastSphere(sphere, results)
	}
}

func (d *BroadPhaseDispatcher) CastFrustum(frustum Frustum, results *CastResults) {
	for _, bp := range d.categories(results.Filter()) {
		bp.CastFrustum(frustum, results)
	}
}

type broadPhaseRecord struct {
	Category string `json:"category"`
	Type     string `json:"type"`
}

type dispatcherRecord struct {
	RefineRayCast bool               `json:"refineRayCast"`
	BroadPhases   []broadPhaseRecord `json:"broadPhases"`
}

func (d *BroadPhaseDispatcher) MarshalJSON() ([]byte, error) {
	rec := dispatcherRecord{RefineRayCast: d.RefineRayCast}
	for category, bp := range d.broadPhases {
		if bp == nil {
			continue
		}
		rec.BroadPhases = append(rec.BroadPhases, broadPhaseRecord{
			Category: BroadPhaseCategory(category).String(),
			Type:     bp.TypeName(),
		})
	}
	return json.Marshal(rec)
}

// UnmarshalJSON replaces the structures with fresh ones built from the saved
// tags. Proxies are not saved; owners recreate them. On error the current
// structures are kept.
func (d *BroadPhaseDispatcher) UnmarshalJSON(data []byte) error {
	var rec dispatcherRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	if d.registry == nil {
		d.registry = DefaultBroadPhaseRegistry
	}

	// build into a scratch dispatcher so a bad record leaves d untouched
	loaded := &BroadPhaseDispatcher{registry: d.registry}
	for _, r := range rec.BroadPhases {
		category, err := ParseBroadPhaseCategory(r.Category)
		if err != nil {
			return err
		}
		bp, err := d.registry.Create(r.Type)
		if err != nil {
			return err
		}
		if err := loaded.AddBroadPhase(category, bp); err != nil {
			return err
		}
	}

	d.broadPhases = loaded.broadPhases
	d.RefineRayCast = rec.RefineRayCast
	return nil
}
