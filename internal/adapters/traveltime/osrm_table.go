package traveltime

import (
	"context"
	"encoding/json"
	"errors"
	"fleet-dispatch-service/internal/domain"
	"fleet-dispatch-service/internal/ports"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

type tableResponse struct {
	Code      string       `json:"code"`
	Message   string       `json:"message"`
	Durations [][]*float64 `json:"durations"`
}

// TravelTimes fetches the full n×n duration table in seconds. Unreachable
// pairs are returned as nil entries.
func (o *OSRMProvider) TravelTimes(ctx context.Context, coords []domain.Coordinates) (ports.TravelTimeTable, error) {
	if len(coords) == 0 {
		return ports.TravelTimeTable{}, errors.New("osrm table: no coordinates")
	}

	endpoint := o.tableURL(coords)

	resp, err := o.client.doWithRetry(ctx, func() (*http.Request, error) {
		return o.client.newRequest(ctx, http.MethodGet, endpoint, nil)
	})
	if err != nil {
		return ports.TravelTimeTable{}, fmt.Errorf("osrm table request failed: %w", err)
	}
	defer resp.Body.Close()

	var tr tableResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return ports.TravelTimeTable{}, fmt.Errorf("decode osrm table response: %w", err)
	}

	if tr.Code != "Ok" {
		msg := tr.Message
		if msg == "" {
			msg = "Unknown error"
		}
		return ports.TravelTimeTable{}, fmt.Errorf("osrm table: %s: %s", tr.Code, msg)
	}

	if len(tr.Durations) != len(coords) {
		return ports.TravelTimeTable{}, fmt.Errorf(
			"osrm table: expected %d rows, got %d", len(coords), len(tr.Durations))
	}

	return ports.TravelTimeTable{
		Durations: tr.Durations,
		Provider:  "osrm",
		Realtime:  false,
	}, nil
}

// tableURL builds {base}/table/v1/{profile}/{lng,lat;...}?sources=..&destinations=..
func (o *OSRMProvider) tableURL(coords []domain.Coordinates) string {
	var path strings.Builder
	idx := make([]string, len(coords))
	for i, c := range coords {
		if i > 0 {
			path.WriteByte(';')
		}
		path.WriteString(strconv.FormatFloat(c.Lon, 'f', -1, 64))
		path.WriteByte(',')
		path.WriteString(strconv.FormatFloat(c.Lat, 'f', -1, 64))
		idx[i] = strconv.Itoa(i)
	}

	q := url.Values{}
	q.Set("sources", strings.Join(idx, ";"))
	q.Set("destinations", strings.Join(idx, ";"))

	return fmt.Sprintf("%s/table/v1/%s/%s?%s", o.baseURL, o.profile, path.String(), q.Encode())
}
