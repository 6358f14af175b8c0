// Package types defines the domain records shared across the engine.
package types

import "time"

// MemoryType classifies a stored memory record.
type MemoryType string

const (
	// MemoryTypeConversation is a plain conversation turn.
	MemoryTypeConversation MemoryType = "conversation"
	// MemoryTypeFact stores an extracted durable fact.
	MemoryTypeFact MemoryType = "fact"
	// MemoryTypeEmotion stores an emotionally significant moment.
	MemoryTypeEmotion MemoryType = "emotion"
	// MemoryTypePersonalIdentity stores identity-level facts (name, age, location).
	MemoryTypePersonalIdentity MemoryType = "personal_identity"
	// MemoryTypeCorrection supersedes an earlier record with corrected content.
	MemoryTypeCorrection MemoryType = "correction"
)

// Valid reports whether t is a known memory type.
func (t MemoryType) Valid() bool {
	switch t {
	case MemoryTypeConversation, MemoryTypeFact, MemoryTypeEmotion,
		MemoryTypePersonalIdentity, MemoryTypeCorrection:
		return true
	}
	return false
}

// Pair identifies one character/user relationship. Every store query and
// ledger transition is scoped to a pair.
type Pair struct {
	CharacterID string
	UserID      string
}

// Key returns a stable composite key for locking and maps.
func (p Pair) Key() string {
	return p.CharacterID + "\x00" + p.UserID
}

// TemporalContext records when a memory was formed.
type TemporalContext struct {
	Timestamp time.Time `json:"timestamp"`
	DayPart   string    `json:"day_part,omitempty"`
	Season    string    `json:"season,omitempty"`
}

// EmotionalContext records the emotional signal attached to a memory.
type EmotionalContext struct {
	Valence  float64 `json:"valence"`
	Category string  `json:"category,omitempty"`
}

// Memory is a persisted record tied to a character/user pair. Records are
// append-only: corrections create a new version and soft-delete the old one.
type Memory struct {
	ID          string     `json:"id"`
	CharacterID string     `json:"character_id"`
	UserID      string     `json:"user_id"`
	Content     string     `json:"content"`
	MemoryType  MemoryType `json:"memory_type"`
	// Category is the extraction category for fact-like memories
	// (family, location, work, ...); empty for conversation memories.
	Category   string  `json:"category,omitempty"`
	Importance float64 `json:"importance"`
	Confidence float64 `json:"confidence"`

	Temporal  TemporalContext  `json:"temporal_context"`
	Emotional EmotionalContext `json:"emotional_context"`

	// ParentMemoryID links to the record this one supersedes.
	ParentMemoryID string `json:"parent_memory_id,omitempty"`

	Embedding []float32 `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Deleted   bool      `json:"deleted"`
}

// Relationship stage labels, derived from level.
const (
	StageStranger     = "stranger"
	StageAcquaintance = "acquaintance"
	StageFriend       = "friend"
	StageIntimate     = "intimate"
)

// StageForLevel maps a relationship level to its stage label.
func StageForLevel(level float64) string {
	switch {
	case level < 1:
		return StageStranger
	case level < 3:
		return StageAcquaintance
	case level < 6:
		return StageFriend
	default:
		return StageIntimate
	}
}

// RelationshipSnapshot is the quantified state of one character/user
// relationship. Level changes only inside the relationship ledger.
type RelationshipSnapshot struct {
	CharacterID string  `json:"character_id"`
	UserID      string  `json:"user_id"`
	Level       float64 `json:"level"`
	Trust       float64 `json:"trust"`

	TotalConversations   int `json:"total_conversations"`
	MemoriesShared       int `json:"memories_shared"`
	EmotionalMoments     int `json:"emotional_moments"`
	PersonalGrowthEvents int `json:"personal_growth_events"`

	// EmotionalBoostTotal and DirectLevelBonus are the two level channels.
	// Level = clamp(EmotionalBoostTotal*levelPerBoostPoint + DirectLevelBonus, 0, 10).
	EmotionalBoostTotal float64 `json:"emotional_boost_total"`
	DirectLevelBonus    float64 `json:"direct_level_bonus"`

	LastInteractionAt time.Time `json:"last_interaction_at"`
	Stage             string    `json:"stage"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CharacterState is the per-pair mood state advanced by the emotion
// state machine. It is persisted so mood survives sessions.
type CharacterState struct {
	CharacterID string    `json:"character_id"`
	UserID      string    `json:"user_id"`
	Affection   int       `json:"affection"`
	Mood        string    `json:"mood"`
	MoodTurns   int       `json:"mood_turns"`
	LastLabel   string    `json:"last_label"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Fact is one extracted personal-detail assertion.
type Fact struct {
	Category   string  `json:"category"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// ExtractionResult is the ephemeral output of the fact extractor.
type ExtractionResult struct {
	Facts []Fact `json:"facts"`
	// IsCorrection marks a message that contradicts previously stated facts.
	IsCorrection bool `json:"is_correction"`
	// CorrectedCategory is a best-effort guess at which category is being
	// corrected; empty when the correction target is unclear.
	CorrectedCategory string `json:"corrected_category,omitempty"`
	// CorrectedValue is the new value carried by the correction, when the
	// pattern captured one.
	CorrectedValue string `json:"corrected_value,omitempty"`
}

// Empty reports whether the extraction found nothing actionable.
func (r ExtractionResult) Empty() bool {
	return len(r.Facts) == 0 && !r.IsCorrection
}

// BonusEvent is a reward triggered by a special conversational category.
type BonusEvent struct {
	Category       string  `json:"category"`
	EmotionalBoost float64 `json:"emotional_boost"`
	MemoriesBonus  int     `json:"memories_bonus"`
	GrowthBonus    int     `json:"growth_bonus"`
	TrustBonus     float64 `json:"trust_bonus"`
	LevelBonus     float64 `json:"level_bonus"`
}

// Bonus categories.
const (
	BonusPersonalInfo  = "personal_info"
	BonusConsciousness = "consciousness"
	BonusProject       = "project"
)

// EmotionalAnalysis is the ephemeral output of the emotional analyzer.
type EmotionalAnalysis struct {
	Valence   float64 `json:"valence"`
	Intensity float64 `json:"intensity"`
	// Category is the highest-priority depth category that matched;
	// "conversation" when none did.
	Category string `json:"category"`
	// Label is the coarse sentiment fed into the mood state machine.
	Label   Label        `json:"label"`
	Bonuses []BonusEvent `json:"bonuses,omitempty"`
}

// Label is a coarse sentiment label.
type Label string

const (
	LabelPositive Label = "positive"
	LabelNegative Label = "negative"
	LabelNeutral  Label = "neutral"
)

// CategoryConversation is the default depth category when no special
// category matched.
const CategoryConversation = "conversation"

// ContextEntry is one memory rendered into a context block.
type ContextEntry struct {
	MemoryID string `json:"memory_id"`
	Section  string `json:"section"`
	Text     string `json:"text"`
}

// Context block section names, in priority order.
const (
	SectionKnownFacts  = "known_facts"
	SectionCorrections = "corrections"
	SectionRelevant    = "relevant"
	SectionRecent      = "recent"
)

// ContextBlock is the bounded memory context handed back to the caller for
// prompt assembly.
type ContextBlock struct {
	Text    string         `json:"text"`
	Entries []ContextEntry `json:"entries"`
	// Truncated is set when the character budget cut entries off.
	Truncated bool `json:"truncated"`
}
