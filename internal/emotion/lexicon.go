package emotion

// lexiconEntry scores one emotion word.
type lexiconEntry struct {
	Valence   float64 // -1 negative, +1 positive, 0 neutral
	Intensity float64 // 0..1
	Category  string
}

// emotionLexicon maps emotion words to valence and intensity scores.
var emotionLexicon = map[string]lexiconEntry{
	// Positive
	"happy":     {1, 0.7, "joy"},
	"excited":   {1, 0.8, "joy"},
	"thrilled":  {1, 0.9, "joy"},
	"delighted": {1, 0.8, "joy"},
	"wonderful": {1, 0.7, "joy"},
	"amazing":   {1, 0.7, "joy"},
	"great":     {1, 0.5, "joy"},
	"good":      {1, 0.4, "joy"},
	"content":   {1, 0.5, "satisfaction"},
	"grateful":  {1, 0.6, "appreciation"},
	"thankful":  {1, 0.6, "appreciation"},
	"hopeful":   {1, 0.6, "optimism"},
	"proud":     {1, 0.7, "achievement"},
	"loved":     {1, 0.8, "affection"},
	"love":      {1, 0.8, "affection"},
	"adore":     {1, 0.8, "affection"},
	"inspired":  {1, 0.7, "motivation"},

	// Negative
	"sad":          {-1, 0.6, "sorrow"},
	"unhappy":      {-1, 0.6, "sorrow"},
	"heartbroken":  {-1, 0.9, "sorrow"},
	"lonely":       {-1, 0.7, "isolation"},
	"angry":        {-1, 0.8, "anger"},
	"furious":      {-1, 0.9, "anger"},
	"hate":         {-1, 0.8, "anger"},
	"frustrated":   {-1, 0.7, "irritation"},
	"annoyed":      {-1, 0.6, "irritation"},
	"worried":      {-1, 0.6, "anxiety"},
	"anxious":      {-1, 0.6, "anxiety"},
	"scared":       {-1, 0.8, "fear"},
	"afraid":       {-1, 0.7, "fear"},
	"terrified":    {-1, 0.9, "fear"},
	"disappointed": {-1, 0.6, "disappointment"},
	"stressed":     {-1, 0.7, "pressure"},
	"confused":     {-1, 0.5, "uncertainty"},

	// Neutral
	"curious":    {0, 0.4, "interest"},
	"thoughtful": {0, 0.3, "reflection"},
	"calm":       {0, 0.2, "serenity"},
	"focused":    {0, 0.4, "concentration"},
}

// intensityModifiers scale the intensity of the emotion word that follows
// them ("really happy", "slightly worried").
var intensityModifiers = map[string]float64{
	"very":       1.5,
	"really":     1.4,
	"extremely":  1.6,
	"incredibly": 1.5,
	"so":         1.3,
	"quite":      1.2,
	"pretty":     1.1,
	"kinda":      0.8,
	"sorta":      0.8,
	"slightly":   0.7,
	"barely":     0.6,
	"hardly":     0.5,
}
