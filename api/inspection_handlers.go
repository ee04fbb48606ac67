package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"trail-inspect/model"
	"trail-inspect/photometa"
	"trail-inspect/projection"
	"trail-inspect/storage"
)

type InspectionHandlers struct {
	Storage     storage.PhotoStorage
	Db          storage.InspectionDB
	Log         *zap.Logger
	SecretKey   string
	AdminPWHash string
}

func (h *InspectionHandlers) Routes() *mux.Router {
	r := mux.NewRouter()

	wrap := func(fn http.HandlerFunc) http.Handler {
		return RequestLoggerMiddleware(h.Log, RecoveryMiddleware(h.Log, fn))
	}
	auth := func(fn http.HandlerFunc) http.Handler {
		return wrap(h.authMiddleware(fn))
	}

	r.Handle("/api/login", wrap(h.handleLogin)).Methods(http.MethodPost)
	r.Handle("/api/inspections", auth(h.handleCreateInspection)).Methods(http.MethodPost)
	r.Handle("/api/inspections", wrap(h.handleListInspections)).Methods(http.MethodGet)
	r.Handle("/api/inspections/near", wrap(h.handleNearInspections)).Methods(http.MethodGet)
	r.Handle("/api/inspections/{id}", wrap(h.handleGetInspection)).Methods(http.MethodGet)
	r.Handle("/api/inspections/{id}/photos/{index}/marker", wrap(h.handlePhotoMarker)).Methods(http.MethodGet)
	r.Handle("/api/status", wrap(h.handleTrailStatus)).Methods(http.MethodGet)
	r.Handle("/api/trails", wrap(h.handleListTrails)).Methods(http.MethodGet)

	return r
}

const maxUploadBytes = 200 * 1024 * 1024 // 200 MB

func (h *InspectionHandlers) handleCreateInspection(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > maxUploadBytes {
		h.Log.Warn("upload exceeds size limit", zap.Int64("content_length", r.ContentLength))
		http.Error(w, "File size exceeds limit", http.StatusRequestEntityTooLarge)
		return
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	ins := model.Inspection{
		TrailID:   r.FormValue("trail_id"),
		Inspector: r.FormValue("inspector"),
		Condition: r.FormValue("condition"),
		Notes:     r.FormValue("notes"),
		CreatedAt: time.Now().UTC(),
	}
	if ins.TrailID == "" || ins.Condition == "" {
		http.Error(w, "trail_id and condition are required", http.StatusBadRequest)
		return
	}

	// The submitting client may include its own geolocation fix; the
	// extractor uses it only for photos without embedded GPS.
	extractor := photometa.NewExtractor(deviceLocator(r), h.Log)

	for _, fh := range r.MultipartForm.File["photos"] {
		f, err := fh.Open()
		if err != nil {
			h.Log.Error("failed to open uploaded file", zap.String("filename", fh.Filename), zap.Error(err))
			http.Error(w, "Error reading uploaded file", http.StatusInternalServerError)
			return
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			h.Log.Error("failed to read uploaded file", zap.String("filename", fh.Filename), zap.Error(err))
			http.Error(w, "Error reading uploaded file", http.StatusInternalServerError)
			return
		}

		meta := extractor.Extract(r.Context(), content, fh.Filename, fh.Header.Get("Content-Type"))

		saved, err := h.Storage.SavePhoto(fh.Filename, content)
		if err != nil {
			h.Log.Error("failed to store photo", zap.String("filename", fh.Filename), zap.Error(err))
			http.Error(w, "Error storing photo", http.StatusInternalServerError)
			return
		}

		ins.Photos = append(ins.Photos, model.CurrentPhoto(model.PhotoRecord{
			URL:          saved.URL,
			ThumbnailURL: saved.ThumbnailURL,
			Filename:     fh.Filename,
			Coordinates:  meta.Coordinates,
			Timestamp:    meta.Timestamp,
			GPSSource:    meta.GPSSource,
		}))
	}

	// Geo-index the record at its first located photo.
	for _, p := range ins.Photos {
		if rec := p.Normalize(); rec.Coordinates != nil {
			ins.LonLat = model.NewGeoPoint(rec.Coordinates.Longitude, rec.Coordinates.Latitude)
			break
		}
	}

	id, err := h.Db.SaveInspection(r.Context(), ins)
	if err != nil {
		h.Log.Error("failed to save inspection", zap.Error(err))
		http.Error(w, "Error saving inspection", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *InspectionHandlers) handleListInspections(w http.ResponseWriter, r *http.Request) {
	limit := int64(0)
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			limit = n
		}
	}
	list, err := h.Db.ListInspections(r.Context(), r.URL.Query().Get("trail_id"), limit)
	if err != nil {
		h.Log.Error("failed to list inspections", zap.Error(err))
		http.Error(w, "Error listing inspections", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *InspectionHandlers) handleGetInspection(w http.ResponseWriter, r *http.Request) {
	ins, err := h.Db.GetInspection(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Inspection not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, ins)
}

// markerResponse positions one photo of an inspection on the trail map.
type markerResponse struct {
	Photo             model.PhotoRecord `json:"photo"`
	LocationAvailable bool              `json:"locationAvailable"`
	Marker            *projection.Pixel `json:"marker,omitempty"`
	MapURL            string            `json:"mapUrl,omitempty"`
}

func (h *InspectionHandlers) handlePhotoMarker(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	ins, err := h.Db.GetInspection(r.Context(), vars["id"])
	if err != nil {
		http.Error(w, "Inspection not found", http.StatusNotFound)
		return
	}
	idx, err := strconv.Atoi(vars["index"])
	if err != nil || idx < 0 || idx >= len(ins.Photos) {
		http.Error(w, "Photo not found", http.StatusNotFound)
		return
	}

	photo := ins.Photos[idx].Normalize()
	resp := markerResponse{Photo: photo}
	if photo.Coordinates != nil {
		px := projection.GPSToPixel(photo.Coordinates.Latitude, photo.Coordinates.Longitude)
		resp.LocationAvailable = true
		resp.Marker = &px
		resp.MapURL = fmt.Sprintf("https://maps.example/?q=%.6f,%.6f",
			photo.Coordinates.Latitude, photo.Coordinates.Longitude)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *InspectionHandlers) handleTrailStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.Db.LatestByTrail(r.Context())
	if err != nil {
		h.Log.Error("failed to aggregate trail status", zap.Error(err))
		http.Error(w, "Error building status", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *InspectionHandlers) handleNearInspections(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lon, errLon := strconv.ParseFloat(q.Get("lon"), 64)
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	if errLon != nil || errLat != nil {
		http.Error(w, "lon and lat are required", http.StatusBadRequest)
		return
	}
	dist := 1000
	if v := q.Get("dist"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			dist = n
		}
	}
	list, err := h.Db.SearchInspectionsByLocation(r.Context(), lon, lat, dist)
	if err != nil {
		h.Log.Error("geo search failed", zap.Error(err))
		http.Error(w, "Error searching inspections", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *InspectionHandlers) handleListTrails(w http.ResponseWriter, r *http.Request) {
	trails, err := h.Db.ListTrails(r.Context())
	if err != nil {
		h.Log.Error("failed to list trails", zap.Error(err))
		http.Error(w, "Error listing trails", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, trails)
}

// deviceLocator builds a locator from the device position fields of the
// upload form, when present.
func deviceLocator(r *http.Request) photometa.Locator {
	lat, errLat := strconv.ParseFloat(r.FormValue("device_lat"), 64)
	lon, errLon := strconv.ParseFloat(r.FormValue("device_lon"), 64)
	if errLat != nil || errLon != nil {
		return nil
	}
	return photometa.StaticLocator{Pos: photometa.Position{Latitude: lat, Longitude: lon}}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
