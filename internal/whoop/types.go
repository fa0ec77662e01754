package whoop

import "time"

// OAuthScopes is the full scope set this server needs: read access to every
// exposed endpoint plus "offline" so the token endpoint issues refresh tokens.
var OAuthScopes = []string{
	"read:recovery",
	"read:cycles",
	"read:sleep",
	"read:workout",
	"read:profile",
	"read:body_measurement",
	"offline",
}

// ScoreStateScored marks a record whose score has been computed. Other states
// ("PENDING_SCORE", "UNSCORABLE") carry no score payload.
const ScoreStateScored = "SCORED"

// UserProfile is the basic profile payload.
type UserProfile struct {
	UserID    int64  `json:"user_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// BodyMeasurement is the user's latest body measurement set.
type BodyMeasurement struct {
	HeightMeter    float64 `json:"height_meter"`
	WeightKilogram float64 `json:"weight_kilogram"`
	MaxHeartRate   int     `json:"max_heart_rate"`
}

// Cycle is a physiological day (wake to wake). End is nil for the current,
// still-open cycle.
type Cycle struct {
	ID             int64       `json:"id"`
	UserID         int64       `json:"user_id"`
	Start          time.Time   `json:"start"`
	End            *time.Time  `json:"end"`
	TimezoneOffset string      `json:"timezone_offset"`
	ScoreState     string      `json:"score_state"`
	Score          *CycleScore `json:"score"`
}

// CycleScore is the strain summary of a cycle.
type CycleScore struct {
	Strain           float64 `json:"strain"`
	Kilojoule        float64 `json:"kilojoule"`
	AverageHeartRate int     `json:"average_heart_rate"`
	MaxHeartRate     int     `json:"max_heart_rate"`
}

// Recovery is the readiness assessment computed for a cycle.
type Recovery struct {
	CycleID    int64          `json:"cycle_id"`
	SleepID    string         `json:"sleep_id"`
	UserID     int64          `json:"user_id"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	ScoreState string         `json:"score_state"`
	Score      *RecoveryScore `json:"score"`
}

// RecoveryScore holds the recovery metrics.
type RecoveryScore struct {
	UserCalibrating  bool    `json:"user_calibrating"`
	RecoveryScore    float64 `json:"recovery_score"`
	RestingHeartRate float64 `json:"resting_heart_rate"`
	HRVRmssdMilli    float64 `json:"hrv_rmssd_milli"`
	Spo2Percentage   float64 `json:"spo2_percentage"`
	SkinTempCelsius  float64 `json:"skin_temp_celsius"`
}

// Sleep is one sleep activity, nightly or nap.
type Sleep struct {
	ID             string      `json:"id"`
	UserID         int64       `json:"user_id"`
	Start          time.Time   `json:"start"`
	End            time.Time   `json:"end"`
	TimezoneOffset string      `json:"timezone_offset"`
	Nap            bool        `json:"nap"`
	ScoreState     string      `json:"score_state"`
	Score          *SleepScore `json:"score"`
}

// SleepScore holds the computed sleep metrics.
type SleepScore struct {
	StageSummary               SleepStageSummary `json:"stage_summary"`
	RespiratoryRate            float64           `json:"respiratory_rate"`
	SleepPerformancePercentage float64           `json:"sleep_performance_percentage"`
	SleepConsistencyPercentage float64           `json:"sleep_consistency_percentage"`
	SleepEfficiencyPercentage  float64           `json:"sleep_efficiency_percentage"`
}

// SleepStageSummary breaks time in bed down by sleep stage.
type SleepStageSummary struct {
	TotalInBedTimeMilli         int64 `json:"total_in_bed_time_milli"`
	TotalAwakeTimeMilli         int64 `json:"total_awake_time_milli"`
	TotalNoDataTimeMilli        int64 `json:"total_no_data_time_milli"`
	TotalLightSleepTimeMilli    int64 `json:"total_light_sleep_time_milli"`
	TotalSlowWaveSleepTimeMilli int64 `json:"total_slow_wave_sleep_time_milli"`
	TotalRemSleepTimeMilli      int64 `json:"total_rem_sleep_time_milli"`
	SleepCycleCount             int   `json:"sleep_cycle_count"`
	DisturbanceCount            int   `json:"disturbance_count"`
}

// Workout is one recorded workout activity.
type Workout struct {
	ID             string        `json:"id"`
	UserID         int64         `json:"user_id"`
	Start          time.Time     `json:"start"`
	End            time.Time     `json:"end"`
	TimezoneOffset string        `json:"timezone_offset"`
	SportName      string        `json:"sport_name"`
	ScoreState     string        `json:"score_state"`
	Score          *WorkoutScore `json:"score"`
}

// WorkoutScore holds the computed workout metrics. Distance and altitude are
// nil for sports without GPS data.
type WorkoutScore struct {
	Strain              float64  `json:"strain"`
	AverageHeartRate    int      `json:"average_heart_rate"`
	MaxHeartRate        int      `json:"max_heart_rate"`
	Kilojoule           float64  `json:"kilojoule"`
	PercentRecorded     float64  `json:"percent_recorded"`
	DistanceMeter       *float64 `json:"distance_meter"`
	AltitudeGainMeter   *float64 `json:"altitude_gain_meter"`
	AltitudeChangeMeter *float64 `json:"altitude_change_meter"`
}

// Collection is WHOOP's paged collection envelope.
type Collection[T any] struct {
	Records   []T    `json:"records"`
	NextToken string `json:"next_token"`
}
