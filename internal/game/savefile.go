package game

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/talgya/daily-decree/internal/newspaper"
)

// SaveMetadata is the index entry for a save.
type SaveMetadata struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	LeaderName string            `json:"leaderName"`
	Country    newspaper.Country `json:"country"`
	TurnCount  int               `json:"turnCount"`
	Timestamp  int64             `json:"timestamp"` // Unix milliseconds
}

// Time returns the save time.
func (m SaveMetadata) Time() time.Time {
	return time.UnixMilli(m.Timestamp)
}

// SaveFile is a complete, self-contained session document. It is the unit
// of persistence and of export/import.
type SaveFile struct {
	Metadata        SaveMetadata           `json:"metadata"`
	GameState       State                  `json:"gameState"`
	Data            *newspaper.Issue       `json:"data"`
	History         []newspaper.TurnRecord `json:"history"`
	TurnCount       int                    `json:"turnCount"`
	SelectedCountry newspaper.Country      `json:"selectedCountry"`
}

// Store persists save files. Implementations live in internal/persistence.
type Store interface {
	Save(ctx context.Context, f *SaveFile) error
	Load(ctx context.Context, id string) (*SaveFile, error)
	List(ctx context.Context) ([]SaveMetadata, error)
	Delete(ctx context.Context, id string) error
}

// Snapshot captures the session as a save file. A session caught mid-turn
// is recorded as PLAYING.
func (s *Session) Snapshot() *SaveFile {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.state
	if state == StateLoading {
		state = StatePlaying
	}
	return &SaveFile{
		Metadata: SaveMetadata{
			ID:         s.ID,
			Name:       string(s.Country) + " Campaign",
			LeaderName: newspaper.LeaderName(s.issue.Characters),
			Country:    s.Country,
			TurnCount:  s.turn,
			Timestamp:  time.Now().UnixMilli(),
		},
		GameState:       state,
		Data:            s.issue.Clone(),
		History:         append([]newspaper.TurnRecord{}, s.history...),
		TurnCount:       s.turn,
		SelectedCountry: s.Country,
	}
}

// Restore rebuilds a session from a validated save file.
func Restore(deps Deps, f *SaveFile) (*Session, error) {
	if err := Validate(f); err != nil {
		return nil, err
	}
	state := f.GameState
	if state != StateGameOver {
		state = StatePlaying
	}
	return &Session{
		ID:      f.Metadata.ID,
		Country: f.SelectedCountry,
		deps:    deps,
		state:   state,
		turn:    f.TurnCount,
		issue:   f.Data.Clone(),
		history: append([]newspaper.TurnRecord{}, f.History...),
	}, nil
}

// Validate checks a decoded save file and fills in what older saves lack.
// Structural problems are reported as ErrSaveCorrupt.
func Validate(f *SaveFile) error {
	switch {
	case f == nil:
		return fmt.Errorf("%w: empty document", ErrSaveCorrupt)
	case strings.TrimSpace(f.Metadata.ID) == "":
		return fmt.Errorf("%w: missing metadata.id", ErrSaveCorrupt)
	case f.Data == nil:
		return fmt.Errorf("%w: missing data", ErrSaveCorrupt)
	case !f.SelectedCountry.Valid():
		return fmt.Errorf("%w: unknown country %q", ErrSaveCorrupt, f.SelectedCountry)
	case f.TurnCount < 0:
		return fmt.Errorf("%w: negative turn count", ErrSaveCorrupt)
	}
	switch f.GameState {
	case StatePlaying, StateLoading, StateGameOver:
	case 0:
		f.GameState = StatePlaying
	default:
		return fmt.Errorf("%w: unknown game state %d", ErrSaveCorrupt, f.GameState)
	}

	// Saves written before diplomacy existed.
	if f.Data.Diplomacy == nil {
		f.Data.Diplomacy = map[string]newspaper.DiplomacyRecord{}
	}
	if f.History == nil {
		f.History = []newspaper.TurnRecord{}
	}
	f.Data.Country = f.SelectedCountry
	if f.Metadata.Country == "" {
		f.Metadata.Country = f.SelectedCountry
	}
	return nil
}

// Encode renders a save file as an indented JSON document.
func Encode(f *SaveFile) ([]byte, error) {
	return json.MarshalIndent(f, "", "  ")
}

// Decode parses and validates a save document.
func Decode(data []byte) (*SaveFile, error) {
	var f SaveFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSaveCorrupt, err)
	}
	if err := Validate(&f); err != nil {
		return nil, err
	}
	return &f, nil
}

// ExportFilename is the suggested file name for an exported save.
func ExportFilename(m SaveMetadata) string {
	id := m.ID
	if len(id) > 6 {
		id = id[:6]
	}
	return fmt.Sprintf("daily_decree_%s_%s.json", strings.ToLower(string(m.Country)), id)
}
