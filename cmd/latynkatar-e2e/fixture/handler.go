package fixture

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/thesyncim/latynkatar-e2e/pkg/latynkatar"
)

// ConvertRequest is the body the page posts to /convert.
type ConvertRequest struct {
	Text           string              `json:"text"`
	Palatalization bool                `json:"palatalization"`
	Graphics       latynkatar.Graphics `json:"graphics"`
}

// ConvertResponse carries the converted text.
type ConvertResponse struct {
	Text string `json:"text"`
}

// Convert returns the stand-in conversion of req: the known sample
// sentence converts per its toggles; any other text is returned as is.
func Convert(req ConvertRequest) string {
	if req.Text != latynkatar.SampleInput {
		return req.Text
	}
	return latynkatar.SampleOutput(latynkatar.Toggles{
		Palatalization: req.Palatalization,
		Graphics:       req.Graphics,
	})
}

// NewConvertHandler answers conversion requests after delay, imitating the
// latency of the real page.
func NewConvertHandler(delay time.Duration, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req ConvertRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Warn("Failed to decode convert request.", zap.Error(err))
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}

		if delay > 0 {
			t := time.NewTimer(delay)
			defer t.Stop()
			select {
			case <-t.C:
			case <-r.Context().Done():
				return
			}
		}

		resp := ConvertResponse{Text: Convert(req)}
		logger.Debug("Converted.",
			zap.Int("runes", len([]rune(req.Text))),
			zap.Bool("palatalization", req.Palatalization),
			zap.String("graphics", string(req.Graphics)))

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			logger.Warn("Failed to write convert response.", zap.Error(err))
		}
	})
}
