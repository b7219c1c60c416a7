package models

import "time"

// ParticipantRecord is the normalized storage row the collector extracts
// from a MatchPlayer.
type ParticipantRecord struct {
	MatchID   int64 `json:"match_id"`
	QueueID   int   `json:"queue_id"`
	GodID     int   `json:"god_id"`
	TaskForce int   `json:"task_force"`
	Won       bool  `json:"won"`
	ItemIDs   []int `json:"item_ids"`
}

// FitParams are the hyperparameters a snapshot was produced with.
type FitParams struct {
	Lambda             float64 `json:"lambda"`
	MaxIterations      int     `json:"max_iterations"`
	MinGodMatches      int     `json:"min_god_matches"`
	MinItemAppearances int     `json:"min_item_appearances"`
	MinItemTier        int     `json:"min_item_tier"`
	HoldoutFraction    float64 `json:"holdout_fraction"`
}

// FitMetrics summarizes how well a per-god model fits.
type FitMetrics struct {
	Examples        int     `json:"examples"`
	Features        int     `json:"features"`
	Iterations      int     `json:"iterations"`
	Converged       bool    `json:"converged"`
	LogLoss         float64 `json:"log_loss"`
	Accuracy        float64 `json:"accuracy"`
	AUC             float64 `json:"auc"`
	HoldoutExamples int     `json:"holdout_examples"`
	HoldoutLogLoss  float64 `json:"holdout_log_loss"`
	HoldoutAccuracy float64 `json:"holdout_accuracy"`
	HoldoutAUC      float64 `json:"holdout_auc"`
}

// ItemRating is one item's fitted weight for a god.
type ItemRating struct {
	ItemID      int     `json:"item_id"`
	ItemName    string  `json:"item_name"`
	Coefficient float64 `json:"coefficient"`
	Odds        float64 `json:"odds"`        // exp(coefficient), win-odds multiplier
	Appearances int     `json:"appearances"`
}

// GodRatings holds both fitted tables for one god: items the god wins with,
// and enemy items the god loses into (their negation is the counter table).
type GodRatings struct {
	GodID   int          `json:"god_id" validate:"required"`
	GodName string       `json:"god_name" validate:"required"`
	Matches int          `json:"matches"`
	Wins    int          `json:"wins"`
	Metrics FitMetrics   `json:"metrics"`
	With    []ItemRating `json:"with"`
	Against []ItemRating `json:"against"`
}

// RatingsSnapshot is the static result file the trainer writes and both the
// dashboard and the explorer read.
type RatingsSnapshot struct {
	RunID        string       `json:"run_id" validate:"required"`
	GeneratedAt  time.Time    `json:"generated_at" validate:"required"`
	PatchVersion string       `json:"patch_version,omitempty"`
	QueueID      int          `json:"queue_id"`
	Dates        []string     `json:"dates,omitempty"`
	Params       FitParams    `json:"params"`
	Matches      int          `json:"matches"`
	Participants int          `json:"participants"`
	Gods         []GodRatings `json:"gods" validate:"dive"`
}
