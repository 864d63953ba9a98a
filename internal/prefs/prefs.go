// Package prefs stores the small presentation preferences that live next
// to the clinical data, currently just the interface language.
package prefs

import (
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicd/internal/platform/kv"
)

const languageKey = "language"

// Store persists the language tag. The value is stored as raw text, not
// JSON, matching how the original client kept it.
type Store struct {
	mu       sync.RWMutex
	kv       kv.Store
	logger   zerolog.Logger
	language string
}

// NewStore loads the persisted language, falling back to def when absent
// or invalid.
func NewStore(store kv.Store, logger zerolog.Logger, def string) *Store {
	if !validTag(def) {
		def = "en"
	}
	s := &Store{kv: store, logger: logger, language: def}
	data, ok, err := store.Load(languageKey)
	if err != nil {
		logger.Warn().Err(err).Msg("loading language preference")
		return s
	}
	if ok && validTag(string(data)) {
		s.language = string(data)
	}
	return s
}

// Language returns the active language tag.
func (s *Store) Language() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.language
}

// SetLanguage stores a new tag. Invalid tags are rejected.
func (s *Store) SetLanguage(tag string) bool {
	if !validTag(tag) {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.language = tag
	if err := s.kv.Save(languageKey, []byte(tag)); err != nil {
		s.logger.Warn().Err(err).Msg("persisting language preference")
	}
	return true
}

// validTag accepts two-letter lowercase locale tags.
func validTag(tag string) bool {
	if len(tag) != 2 {
		return false
	}
	for _, r := range tag {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

// Handler exposes the language preference over HTTP.
type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/settings/language", h.GetLanguage)
	api.PUT("/settings/language", h.SetLanguage)
}

type languagePayload struct {
	Language string `json:"language"`
}

func (h *Handler) GetLanguage(c echo.Context) error {
	return c.JSON(http.StatusOK, languagePayload{Language: h.store.Language()})
}

func (h *Handler) SetLanguage(c echo.Context) error {
	var req languagePayload
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if !h.store.SetLanguage(req.Language) {
		return echo.NewHTTPError(http.StatusBadRequest, "language must be a two-letter tag")
	}
	return c.JSON(http.StatusOK, languagePayload{Language: h.store.Language()})
}
