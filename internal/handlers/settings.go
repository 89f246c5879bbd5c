package handlers

import (
	"net/http"

	"github.com/rdevries/kantoor/internal/middleware"
	"github.com/rdevries/kantoor/internal/store"
)

type SettingsHandler struct {
	Store store.Store
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Store.GetSettings(middleware.UserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	type UpdateSettingsRequest struct {
		Language    string `json:"language" validate:"omitempty,oneof=PL TR NL"`
		DarkMode    *bool  `json:"dark_mode"`
		CompactMode *bool  `json:"compact_mode"`
		SoundOn     *bool  `json:"sound_enabled"`
		PushOn      *bool  `json:"push_enabled"`
	}

	var req UpdateSettingsRequest
	if err := decodeValid(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	userID := middleware.UserID(r)
	settings, err := h.Store.GetSettings(userID)
	if err != nil {
		writeError(w, err)
		return
	}

	if req.Language != "" {
		settings.Language = req.Language
	}
	apply := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}
	apply(&settings.DarkMode, req.DarkMode)
	apply(&settings.CompactMode, req.CompactMode)
	apply(&settings.SoundOn, req.SoundOn)
	apply(&settings.PushOn, req.PushOn)
	settings.UserID = userID

	if err := h.Store.UpsertSettings(settings); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}
