package record

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Slot نام یکی از بخش‌های رکورد کش
type Slot string

const (
	SlotNonprofitInfo     Slot = "nonprofitInfo"
	SlotFundraiserInfo    Slot = "fundraiserInfo"
	SlotFundraiserDetails Slot = "fundraiserDetails"
	SlotFormFields        Slot = "formFields"
	SlotCreationResponse  Slot = "fundraiserCreationResponse"
)

// knownSlots is the single source of truth for the slot set: operations and
// (de)serialization both iterate this list.
var knownSlots = []Slot{
	SlotNonprofitInfo,
	SlotFundraiserInfo,
	SlotFundraiserDetails,
	SlotFormFields,
	SlotCreationResponse,
}

// ErrSlotUninitialized is returned when SetProp/AllProps touch a slot that was
// never initialized. Callers must treat this as a bug, not skip it silently.
var ErrSlotUninitialized = errors.New("cache record slot not initialized")

// Status وضعیت محاسبه‌شده‌ی fundraiser
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusExpired   Status = "expired"
	StatusUnknown   Status = "unknown"
)

// Props is one slot's property bag. Values are JSON-shaped (string, float64,
// bool, nil).
type Props map[string]interface{}

// CacheRecord everything cached about one post's fundraiser.
type CacheRecord struct {
	slots       map[Slot]Props
	lastUpdated time.Time
}

func New() *CacheRecord {
	return &CacheRecord{slots: make(map[Slot]Props)}
}

// touch bumps lastUpdated; it never goes backwards even if the wall clock does.
func (r *CacheRecord) touch() {
	now := time.Now().UTC()
	if !now.After(r.lastUpdated) {
		now = r.lastUpdated.Add(time.Nanosecond)
	}
	r.lastUpdated = now
}

func isKnown(slot Slot) bool {
	for _, s := range knownSlots {
		if s == slot {
			return true
		}
	}
	return false
}

// Initialize creates or wholesale-replaces a slot's property bag. data may be a
// typed slot struct, a Props map, or nil for an empty bag.
func (r *CacheRecord) Initialize(slot Slot, data interface{}) error {
	if !isKnown(slot) {
		return fmt.Errorf("unknown slot %q", slot)
	}
	bag, err := toProps(data)
	if err != nil {
		return fmt.Errorf("initialize slot %q: %w", slot, err)
	}
	r.slots[slot] = bag
	r.touch()
	return nil
}

// Initialized تست اینکه آیا slot مقداردهی شده است
func (r *CacheRecord) Initialized(slot Slot) bool {
	_, ok := r.slots[slot]
	return ok
}

// SetProp updates a single field of an already-initialized slot. Other fields
// of the slot are left untouched.
func (r *CacheRecord) SetProp(slot Slot, field string, value interface{}) error {
	bag, ok := r.slots[slot]
	if !ok {
		return fmt.Errorf("set %s.%s: %w", slot, field, ErrSlotUninitialized)
	}
	bag[field] = value
	r.touch()
	return nil
}

// GetProp returns the field's value, or nil if the field (or the slot) is
// unset.
func (r *CacheRecord) GetProp(slot Slot, field string) interface{} {
	bag, ok := r.slots[slot]
	if !ok {
		return nil
	}
	return bag[field]
}

// AllProps returns a copy of the slot's full bag.
func (r *CacheRecord) AllProps(slot Slot) (Props, error) {
	bag, ok := r.slots[slot]
	if !ok {
		return nil, fmt.Errorf("get all props of %s: %w", slot, ErrSlotUninitialized)
	}
	out := make(Props, len(bag))
	for k, v := range bag {
		out[k] = v
	}
	return out, nil
}

// LastUpdated آخرین زمان تغییر رکورد
func (r *CacheRecord) LastUpdated() time.Time {
	return r.lastUpdated
}

// Status derives the fundraiser status from the cached fundraiserInfo slot.
// It is computed on every call, never stored authoritatively.
func (r *CacheRecord) Status() Status {
	info, err := r.FundraiserInfo()
	if err != nil {
		return StatusUnknown
	}
	if end, ok := ParseDate(info.EndDate); ok && end.Before(time.Now()) {
		return StatusExpired
	}
	if info.Active {
		return StatusActive
	}
	return StatusCompleted
}

// FundraiserInfo decodes the fundraiserInfo slot into its typed form.
func (r *CacheRecord) FundraiserInfo() (*FundraiserInfo, error) {
	var info FundraiserInfo
	if err := r.decodeSlot(SlotFundraiserInfo, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// FundraiserDetails decodes the fundraiserDetails slot into its typed form.
func (r *CacheRecord) FundraiserDetails() (*FundraiserDetails, error) {
	var details FundraiserDetails
	if err := r.decodeSlot(SlotFundraiserDetails, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// NonprofitInfo decodes the nonprofitInfo slot into its typed form.
func (r *CacheRecord) NonprofitInfo() (*NonprofitInfo, error) {
	var info NonprofitInfo
	if err := r.decodeSlot(SlotNonprofitInfo, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (r *CacheRecord) decodeSlot(slot Slot, out interface{}) error {
	bag, ok := r.slots[slot]
	if !ok {
		return fmt.Errorf("decode %s: %w", slot, ErrSlotUninitialized)
	}
	raw, err := json.Marshal(bag)
	if err != nil {
		return fmt.Errorf("decode %s: %w", slot, err)
	}
	return json.Unmarshal(raw, out)
}

// reserved top-level keys in the serialized form, next to the slot bags.
const (
	keyLastUpdated = "lastUpdated"
	keyStatus      = "status"
)

// MarshalJSON produces a flat mapping from slot name to its bag, plus
// lastUpdated and the cached status convenience field.
func (r *CacheRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(r.slots)+2)
	for _, slot := range knownSlots {
		if bag, ok := r.slots[slot]; ok {
			out[string(slot)] = bag
		}
	}
	out[keyLastUpdated] = r.lastUpdated.Format(time.RFC3339Nano)
	out[keyStatus] = r.Status()
	return json.Marshal(out)
}

// UnmarshalJSON is the exact inverse. Slot names that are no longer in the
// known set are skipped rather than failing the load.
func (r *CacheRecord) UnmarshalJSON(data []byte) error {
	var in map[string]json.RawMessage
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	r.slots = make(map[Slot]Props)
	for name, raw := range in {
		switch name {
		case keyLastUpdated:
			var ts string
			if err := json.Unmarshal(raw, &ts); err != nil {
				return fmt.Errorf("parse lastUpdated: %w", err)
			}
			parsed, err := time.Parse(time.RFC3339Nano, ts)
			if err != nil {
				return fmt.Errorf("parse lastUpdated: %w", err)
			}
			r.lastUpdated = parsed
		case keyStatus:
			// derived convenience field, recomputed on demand
		default:
			if !isKnown(Slot(name)) {
				continue
			}
			var bag Props
			if err := json.Unmarshal(raw, &bag); err != nil {
				return fmt.Errorf("decode slot %s: %w", name, err)
			}
			r.slots[Slot(name)] = bag
		}
	}
	return nil
}

func toProps(data interface{}) (Props, error) {
	if data == nil {
		return make(Props), nil
	}
	if bag, ok := data.(Props); ok {
		out := make(Props, len(bag))
		for k, v := range bag {
			out[k] = v
		}
		return out, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var bag Props
	if err := json.Unmarshal(raw, &bag); err != nil {
		return nil, err
	}
	if bag == nil {
		bag = make(Props)
	}
	return bag, nil
}

// ParseDate accepts either a plain date or a full RFC3339 timestamp; upstream
// sends both depending on the endpoint.
func ParseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, true
	}
	if ts, err := time.Parse("2006-01-02", s); err == nil {
		return ts, true
	}
	return time.Time{}, false
}
