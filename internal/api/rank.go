package api

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/JakeFAU/skiresort-ranker/internal/ranking"
	"github.com/JakeFAU/skiresort-ranker/internal/region"
)

// Messages returned in the error payload.
const (
	msgInvalidRegion     = "Invalid region"
	msgInvalidCoordinate = "Invalid coordinates"
	msgDataUnavailable   = "Something went wrong... maybe the data doesn't exist."
)

// resortResponse is one row of the ranking payload. Travel fields are omitted
// and enrichmentFailed is set when no route was found.
type resortResponse struct {
	Name             string   `json:"name"`
	Highest          float64  `json:"highest"`
	Lowest           float64  `json:"lowest"`
	Diff             float64  `json:"diff"`
	DriveTime        string   `json:"driveTime,omitempty"`
	DriveTimeSeconds *float64 `json:"driveTimeSeconds,omitempty"`
	FallHeight       *float64 `json:"fallHeight,omitempty"`
	EnrichmentFailed bool     `json:"enrichmentFailed,omitempty"`
}

type rankParams struct {
	region region.Region
	origin *region.Coordinate
	sort   string
	order  string
}

// parseRankParams reads the query string. Values that do not parse are
// treated as absent.
func parseRankParams(q url.Values) rankParams {
	var p rankParams
	for _, raw := range q["region"] {
		if r, err := region.Parse(raw); err == nil {
			p.region = r
			break
		}
	}
	if raw := q.Get("coords"); raw != "" {
		if c, err := region.ParseDegrees(raw); err == nil {
			p.origin = &c
		}
	}
	p.sort = q.Get("sort")
	p.order = q.Get("order")
	return p
}

func (s *Server) rank(w http.ResponseWriter, r *http.Request) {
	params := parseRankParams(r.URL.Query())

	if params.origin != nil && params.region == "" {
		target := fmt.Sprintf("%s&region=%s", r.URL.RequestURI(), region.Classify(*params.origin))
		http.Redirect(w, r, target, http.StatusMovedPermanently)
		return
	}

	ranked, err := s.ranker.Rank(r.Context(), ranking.Query{
		Region: params.region,
		Origin: params.origin,
		Sort:   params.sort,
		Order:  params.order,
	})
	switch {
	case errors.Is(err, ranking.ErrInvalidRegion):
		writeError(w, http.StatusBadRequest, msgInvalidRegion)
		return
	case errors.Is(err, ranking.ErrInvalidCoordinate):
		writeError(w, http.StatusBadRequest, msgInvalidCoordinate)
		return
	case err != nil:
		s.logger.Error("ranking failed",
			zap.String("request_id", RequestID(r.Context())),
			zap.String("region", params.region.String()),
			zap.Error(err),
		)
		writeError(w, http.StatusServiceUnavailable, msgDataUnavailable)
		return
	}

	out := make([]resortResponse, 0, len(ranked))
	for _, rr := range ranked {
		out = append(out, toResponse(rr))
	}
	writeJSON(w, http.StatusOK, out)
}

func toResponse(rr ranking.RankedResort) resortResponse {
	resp := resortResponse{
		Name:    rr.Name,
		Highest: rr.Highest,
		Lowest:  rr.Lowest,
		Diff:    rr.Drop,
	}
	if rr.EnrichmentFailed() {
		resp.EnrichmentFailed = true
		return resp
	}
	secs := rr.TravelTime.Seconds()
	resp.DriveTimeSeconds = &secs
	resp.DriveTime = fmt.Sprintf("%dh", int64(math.Round(secs/3600)))
	resp.FallHeight = rr.Efficiency
	return resp
}
