package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/waveline/waveline/pkg/devicemodel"
	"github.com/waveline/waveline/pkg/logger"
	"github.com/waveline/waveline/pkg/waveform"
)

// ChannelHandler serves read-only channel state from the device model.
type ChannelHandler struct {
	model *devicemodel.Model
	log   logger.Logger
}

// NewChannelHandler creates a channel handler.
func NewChannelHandler(model *devicemodel.Model, log logger.Logger) *ChannelHandler {
	return &ChannelHandler{model: model, log: log}
}

// ChannelInfo is the API representation of one channel.
type ChannelInfo struct {
	Descriptor waveform.Descriptor  `json:"descriptor"`
	Record     waveform.StateRecord `json:"record"`
}

// errorResponse is the JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}

// ListChannels returns all channels with their committed state.
func (h *ChannelHandler) ListChannels(w http.ResponseWriter, r *http.Request) {
	ids := h.model.Channels()
	out := make([]ChannelInfo, 0, len(ids))
	for _, id := range ids {
		info, err := h.channelInfo(id)
		if err != nil {
			// channel removed between listing and read; skip
			continue
		}
		out = append(out, info)
	}
	writeJSON(w, http.StatusOK, out)
}

// GetChannel returns one channel's committed state.
func (h *ChannelHandler) GetChannel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	info, err := h.channelInfo(id)
	if err != nil {
		var notFound *devicemodel.NotFoundError
		if errors.As(err, &notFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
			return
		}
		h.log.Error("channel read failed", "channel", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *ChannelHandler) channelInfo(id string) (ChannelInfo, error) {
	descriptor, err := h.model.Descriptor(id)
	if err != nil {
		return ChannelInfo{}, err
	}
	record, err := h.model.Record(id)
	if err != nil {
		return ChannelInfo{}, err
	}
	return ChannelInfo{Descriptor: descriptor, Record: record}, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
