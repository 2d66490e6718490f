package presets

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"adbrush/internal/domain"
)

const screensBucketName = "screens"

var (
	ErrStoreClosed   = errors.New("preset store is closed")
	ErrInvalidName   = errors.New("preset name is required")
	ErrInvalidScreen = errors.New("screen size must be positive")
)

// Preset is a named tap coordinate recorded for one screen size.
type Preset struct {
	Name        string            `json:"name"`
	Screen      domain.ScreenSize `json:"screen"`
	X           int               `json:"x"`
	Y           int               `json:"y"`
	Description string            `json:"description,omitempty"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// Target returns the preset coordinate.
func (p Preset) Target() domain.TapTarget {
	return domain.TapTarget{X: p.X, Y: p.Y}
}

type storedPreset struct {
	X           int       `json:"x"`
	Y           int       `json:"y"`
	Description string    `json:"description,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Store keeps presets in a bbolt file, one bucket per screen size.
type Store struct {
	mu     sync.RWMutex
	db     *bolt.DB
	path   string
	closed bool
	now    func() time.Time
}

// OpenStore opens or creates the database at path.
func OpenStore(path string) (*Store, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("presets path is required")
	}
	if err := os.MkdirAll(filepath.Dir(trimmed), 0o755); err != nil {
		return nil, fmt.Errorf("ensure presets dir: %w", err)
	}
	db, err := bolt.Open(trimmed, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open presets db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(screensBucketName))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init presets db: %w", err)
	}
	return &Store{db: db, path: trimmed, now: time.Now}, nil
}

// Path returns the database file.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Put creates or replaces a preset and returns the stored value.
func (s *Store) Put(p Preset) (Preset, error) {
	if err := validate(p.Screen, p.Name); err != nil {
		return Preset{}, err
	}
	if p.X < 0 || p.Y < 0 {
		return Preset{}, fmt.Errorf("%w: coordinates must be >= 0", domain.ErrInvalidTarget)
	}
	p.Name = strings.TrimSpace(p.Name)
	p.UpdatedAt = s.now().UTC()

	value, err := json.Marshal(storedPreset{X: p.X, Y: p.Y, Description: p.Description, UpdatedAt: p.UpdatedAt})
	if err != nil {
		return Preset{}, fmt.Errorf("encode preset: %w", err)
	}
	err = s.update(func(tx *bolt.Tx) error {
		bucket, err := tx.Bucket([]byte(screensBucketName)).CreateBucketIfNotExists([]byte(ScreenKey(p.Screen)))
		if err != nil {
			return fmt.Errorf("create screen bucket: %w", err)
		}
		return bucket.Put([]byte(p.Name), value)
	})
	if err != nil {
		return Preset{}, err
	}
	return p, nil
}

// Get returns the preset name recorded for screen.
func (s *Store) Get(screen domain.ScreenSize, name string) (Preset, error) {
	if err := validate(screen, name); err != nil {
		return Preset{}, err
	}
	name = strings.TrimSpace(name)
	var preset Preset
	err := s.view(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(screensBucketName)).Bucket([]byte(ScreenKey(screen)))
		if bucket == nil {
			return fmt.Errorf("%w: %s on %s", domain.ErrPresetNotFound, name, ScreenKey(screen))
		}
		value := bucket.Get([]byte(name))
		if value == nil {
			return fmt.Errorf("%w: %s on %s", domain.ErrPresetNotFound, name, ScreenKey(screen))
		}
		var err error
		preset, err = decodePreset(screen, name, value)
		return err
	})
	return preset, err
}

// List returns presets sorted by screen then name. A zero screen lists every screen.
func (s *Store) List(screen domain.ScreenSize) ([]Preset, error) {
	var out []Preset
	err := s.view(func(tx *bolt.Tx) error {
		screens := tx.Bucket([]byte(screensBucketName))
		return screens.ForEach(func(key, value []byte) error {
			if value != nil {
				return nil
			}
			size, ok := ParseScreenKey(string(key))
			if !ok {
				return nil
			}
			if screen.Width > 0 && size != screen {
				return nil
			}
			return screens.Bucket(key).ForEach(func(name, value []byte) error {
				preset, err := decodePreset(size, string(name), value)
				if err != nil {
					return err
				}
				out = append(out, preset)
				return nil
			})
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		ki, kj := ScreenKey(out[i].Screen), ScreenKey(out[j].Screen)
		if ki != kj {
			return ki < kj
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// Delete removes a preset. Removing the last preset of a screen drops its bucket.
func (s *Store) Delete(screen domain.ScreenSize, name string) error {
	if err := validate(screen, name); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	return s.update(func(tx *bolt.Tx) error {
		screens := tx.Bucket([]byte(screensBucketName))
		key := []byte(ScreenKey(screen))
		bucket := screens.Bucket(key)
		if bucket == nil || bucket.Get([]byte(name)) == nil {
			return fmt.Errorf("%w: %s on %s", domain.ErrPresetNotFound, name, ScreenKey(screen))
		}
		if err := bucket.Delete([]byte(name)); err != nil {
			return fmt.Errorf("delete preset %s: %w", name, err)
		}
		if k, _ := bucket.Cursor().First(); k == nil {
			return screens.DeleteBucket(key)
		}
		return nil
	})
}

// ScreenKey formats a screen size as "<width>x<height>".
func ScreenKey(size domain.ScreenSize) string {
	return strconv.Itoa(size.Width) + "x" + strconv.Itoa(size.Height)
}

// ParseScreenKey parses "<width>x<height>".
func ParseScreenKey(key string) (domain.ScreenSize, bool) {
	w, h, ok := strings.Cut(strings.TrimSpace(key), "x")
	if !ok {
		return domain.ScreenSize{}, false
	}
	width, errW := strconv.Atoi(w)
	height, errH := strconv.Atoi(h)
	if errW != nil || errH != nil || width <= 0 || height <= 0 {
		return domain.ScreenSize{}, false
	}
	return domain.ScreenSize{Width: width, Height: height}, true
}

func decodePreset(screen domain.ScreenSize, name string, value []byte) (Preset, error) {
	var stored storedPreset
	if err := json.Unmarshal(value, &stored); err != nil {
		return Preset{}, fmt.Errorf("decode preset %s: %w", name, err)
	}
	return Preset{
		Name:        name,
		Screen:      screen,
		X:           stored.X,
		Y:           stored.Y,
		Description: stored.Description,
		UpdatedAt:   stored.UpdatedAt,
	}, nil
}

func validate(screen domain.ScreenSize, name string) error {
	if screen.Width <= 0 || screen.Height <= 0 {
		return ErrInvalidScreen
	}
	if strings.TrimSpace(name) == "" {
		return ErrInvalidName
	}
	return nil
}

func (s *Store) view(fn func(*bolt.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return s.db.View(fn)
}

func (s *Store) update(fn func(*bolt.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return s.db.Update(fn)
}
