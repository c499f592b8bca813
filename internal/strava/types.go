package strava

import "encoding/json"

// Platform is the source platform name carried by every normalized activity.
const Platform = "Strava"

// TokenGrant is the result of a successful code exchange.
type TokenGrant struct {
	AccessToken string
	AthleteID   int64
}

// Activity is Justletic's provider-agnostic view of one recorded
// exercise session. It is produced fresh on every fetch and never
// persisted. StartDateLocal keeps the provider's ISO-8601 string form;
// ordering compares these strings lexicographically.
type Activity struct {
	Platform         string
	Distance         float64 // meters
	MovingTime       int     // seconds
	ElevationGain    float64 // meters
	Type             string
	StravaID         int64
	StartDateLocal   string
	AverageHeartrate *float64 // nil when absent from the source record
	AverageCadence   *float64 // nil when absent from the source record
}

// tokenResponse is the token endpoint's JSON body. Error responses carry
// an "errors" array instead of the token fields.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	Athlete     *struct {
		ID int64 `json:"id"`
	} `json:"athlete"`
	Errors []json.RawMessage `json:"errors"`
}

// rawActivity is one element of the athlete activities response.
type rawActivity struct {
	ID                 int64    `json:"id"`
	Type               string   `json:"type"`
	Distance           float64  `json:"distance"`
	MovingTime         int      `json:"moving_time"`
	TotalElevationGain float64  `json:"total_elevation_gain"`
	StartDateLocal     string   `json:"start_date_local"`
	AverageHeartrate   *float64 `json:"average_heartrate"`
	AverageCadence     *float64 `json:"average_cadence"`
}

func (r rawActivity) normalize() Activity {
	return Activity{
		Platform:         Platform,
		Distance:         r.Distance,
		MovingTime:       r.MovingTime,
		ElevationGain:    r.TotalElevationGain,
		Type:             r.Type,
		StravaID:         r.ID,
		StartDateLocal:   r.StartDateLocal,
		AverageHeartrate: r.AverageHeartrate,
		AverageCadence:   r.AverageCadence,
	}
}
