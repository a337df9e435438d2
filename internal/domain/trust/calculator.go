package trust

import (
	"math"
	"sort"
	"time"

	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/graph"
	"github.com/OmeoneChain/omeonechain-sub016/internal/domain/shared"
	"github.com/OmeoneChain/omeonechain-sub016/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIG
// ══════════════════════════════════════════════════════════════════════════════

// Default calculator parameters. The distance weights and traversal bounds
// mirror the reputation engine so both layers agree on what a follow is
// worth.
const (
	DefaultMaxTrustScore     = 10.0
	DefaultMinTrustThreshold = 0.25

	DefaultRecencyHalfLifeDays = 30.0
	// DefaultRecencyFloor keeps old content rankable instead of hard-zeroing.
	DefaultRecencyFloor = 0.1

	// DefaultInteractionDecay shrinks each additional same-cluster
	// interaction, blunting brigading from one tightly connected group.
	DefaultInteractionDecay = 0.8

	// Combination weights, summing to 1.
	DefaultSocialWeight    = 0.40
	DefaultQualityWeight   = 0.35
	DefaultRecencyWeight   = 0.15
	DefaultDiversityWeight = 0.10

	// qualitySaturation is the weighted-signal sum at which the quality
	// component reaches 1.
	qualitySaturation = 3.0

	// confidenceHalfPoint is the evidence volume at which confidence
	// reaches 0.5.
	confidenceHalfPoint = 5.0

	// maxPathEntries bounds the explainability path.
	maxPathEntries = 10
)

// Trust category bands on the [0, 10] scale. The upper two edges sit at the
// verification thresholds scaled by ten so the per-content and per-user
// scales read consistently.
const (
	ModerateBand  = 2.5
	HighBand      = 5.0
	ExcellentBand = 8.0
)

// CalculatorConfig holds the tunable scoring parameters.
type CalculatorConfig struct {
	DirectFollowWeight    float64
	SecondaryFollowWeight float64
	MaxSocialDistance     int
	FanOutCap             int

	MaxTrustScore     float64
	MinTrustThreshold float64

	RecencyHalfLifeDays float64
	RecencyFloor        float64
	InteractionDecay    float64

	SocialWeight    float64
	QualityWeight   float64
	RecencyWeight   float64
	DiversityWeight float64
}

// DefaultCalculatorConfig returns the standard scoring parameters.
func DefaultCalculatorConfig() CalculatorConfig {
	return CalculatorConfig{
		DirectFollowWeight:    0.75,
		SecondaryFollowWeight: 0.25,
		MaxSocialDistance:     graph.DefaultMaxDepth,
		FanOutCap:             graph.DefaultFanOutCap,
		MaxTrustScore:         DefaultMaxTrustScore,
		MinTrustThreshold:     DefaultMinTrustThreshold,
		RecencyHalfLifeDays:   DefaultRecencyHalfLifeDays,
		RecencyFloor:          DefaultRecencyFloor,
		InteractionDecay:      DefaultInteractionDecay,
		SocialWeight:          DefaultSocialWeight,
		QualityWeight:         DefaultQualityWeight,
		RecencyWeight:         DefaultRecencyWeight,
		DiversityWeight:       DefaultDiversityWeight,
	}
}

func (c CalculatorConfig) normalized() CalculatorConfig {
	def := DefaultCalculatorConfig()
	if c.DirectFollowWeight <= 0 || c.DirectFollowWeight > 1 {
		c.DirectFollowWeight = def.DirectFollowWeight
	}
	if c.SecondaryFollowWeight <= 0 || c.SecondaryFollowWeight > c.DirectFollowWeight {
		c.SecondaryFollowWeight = def.SecondaryFollowWeight
	}
	if c.MaxSocialDistance <= 0 || c.MaxSocialDistance > graph.DefaultMaxDepth {
		c.MaxSocialDistance = def.MaxSocialDistance
	}
	if c.FanOutCap <= 0 {
		c.FanOutCap = def.FanOutCap
	}
	if c.MaxTrustScore <= 0 {
		c.MaxTrustScore = def.MaxTrustScore
	}
	if c.MinTrustThreshold < 0 || c.MinTrustThreshold > c.MaxTrustScore {
		c.MinTrustThreshold = def.MinTrustThreshold
	}
	if c.RecencyHalfLifeDays <= 0 {
		c.RecencyHalfLifeDays = def.RecencyHalfLifeDays
	}
	if c.RecencyFloor < 0 || c.RecencyFloor >= 1 {
		c.RecencyFloor = def.RecencyFloor
	}
	if c.InteractionDecay <= 0 || c.InteractionDecay > 1 {
		c.InteractionDecay = def.InteractionDecay
	}
	sum := c.SocialWeight + c.QualityWeight + c.RecencyWeight + c.DiversityWeight
	if sum <= 0 {
		c.SocialWeight = def.SocialWeight
		c.QualityWeight = def.QualityWeight
		c.RecencyWeight = def.RecencyWeight
		c.DiversityWeight = def.DiversityWeight
	} else if math.Abs(sum-1) > 1e-9 {
		c.SocialWeight /= sum
		c.QualityWeight /= sum
		c.RecencyWeight /= sum
		c.DiversityWeight /= sum
	}
	return c
}

// ══════════════════════════════════════════════════════════════════════════════
// CALCULATOR
// ══════════════════════════════════════════════════════════════════════════════

// Calculator scores content from a viewer's perspective. It performs no I/O
// and reads no ambient clock; it is safe for concurrent use.
type Calculator struct {
	config CalculatorConfig
}

// NewCalculator creates a trust score calculator.
func NewCalculator(config CalculatorConfig) *Calculator {
	return &Calculator{config: config.normalized()}
}

// Config returns the effective configuration after normalization.
func (c *Calculator) Config() CalculatorConfig {
	return c.config
}

// Calculate scores one content item for the evaluating user. The supplied
// connection list is the whole graph the calculation sees; now is the only
// clock. Malformed input fails fast rather than defaulting to zero.
func (c *Calculator) Calculate(
	evaluatingUserID graph.UserID,
	connections []Connection,
	interactions []UserInteraction,
	metadata ContentMetadata,
	now time.Time,
) (*TrustScoreResult, error) {
	if !evaluatingUserID.IsValid() {
		return nil, shared.ErrInvalidEvaluator
	}
	if now.IsZero() {
		return nil, shared.NewDomainError("trust", "Calculate", shared.ErrInvalidInput, "now is required")
	}
	if err := metadata.Validate(); err != nil {
		return nil, err
	}
	for _, conn := range connections {
		if err := conn.Validate(); err != nil {
			return nil, err
		}
	}
	for _, interaction := range interactions {
		if err := interaction.Validate(); err != nil {
			return nil, err
		}
	}

	index := buildAdjacencyIndex(connections, c.config.FanOutCap)
	distances := newDistanceCache(index, evaluatingUserID, c.config.MaxSocialDistance)

	socialTrust := c.weightForDistance(distances.lookup(metadata.AuthorID))

	contributions := c.collectContributions(distances, interactions, metadata.ContentID)
	quality := c.qualitySignals(contributions)
	recency := c.recencyFactor(metadata.CreatedAt, now)
	diversity := c.diversityBonus(contributions)

	combined := c.config.SocialWeight*socialTrust +
		c.config.QualityWeight*quality +
		c.config.RecencyWeight*recency +
		c.config.DiversityWeight*diversity

	finalScore := round3(clamp01(combined) * c.config.MaxTrustScore)
	confidence := round3(c.confidence(len(connections), len(contributions)))

	return &TrustScoreResult{
		ContentID:  metadata.ContentID,
		FinalScore: finalScore,
		Confidence: confidence,
		Category:   c.CategoryFor(finalScore),
		Breakdown: ScoreBreakdown{
			SocialTrust:    round3(socialTrust),
			QualitySignals: round3(quality),
			Recency:        round3(recency),
			Diversity:      round3(diversity),
		},
		SocialPath: c.socialPath(distances, metadata.AuthorID, socialTrust, contributions),
	}, nil
}

// MeetsTrustThreshold reports whether a final score clears the minimum
// threshold for surfacing.
func (c *Calculator) MeetsTrustThreshold(score float64) bool {
	return score >= c.config.MinTrustThreshold
}

// CategoryFor maps a final score to its band.
func (c *Calculator) CategoryFor(score float64) TrustCategory {
	switch {
	case score >= ExcellentBand:
		return CategoryExcellent
	case score >= HighBand:
		return CategoryHigh
	case score >= ModerateBand:
		return CategoryModerate
	default:
		return CategoryLow
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Pipeline steps
// ──────────────────────────────────────────────────────────────────────────────

// weightForDistance maps a social distance to its trust weight. Distance -1
// means unreachable within bounds.
func (c *Calculator) weightForDistance(distance int) float64 {
	switch distance {
	case 0:
		return 1.0
	case 1:
		return c.config.DirectFollowWeight
	case 2:
		return c.config.SecondaryFollowWeight
	default:
		return 0
	}
}

// contribution is one interaction's weighted effect on the quality signal.
type contribution struct {
	interaction UserInteraction
	distance    int
	weight      float64
}

// collectContributions filters interactions to the scored content, weights
// each by actor distance and type, and applies per-cluster decay. A cluster
// is all interactions arriving from the same social distance; each
// additional interaction from a cluster counts for less. Interactions from
// unreachable actors contribute nothing but are dropped before decay so they
// cannot dilute reachable signal.
func (c *Calculator) collectContributions(distances *distanceCache, interactions []UserInteraction, contentID string) []contribution {
	relevant := make([]UserInteraction, 0, len(interactions))
	for _, interaction := range interactions {
		if interaction.ContentID == contentID {
			relevant = append(relevant, interaction)
		}
	}
	sortInteractions(relevant)

	clusterCounts := make(map[int]int)
	contributions := make([]contribution, 0, len(relevant))
	for _, interaction := range relevant {
		distance := distances.lookup(interaction.UserID)
		actorWeight := c.weightForDistance(distance)
		if actorWeight == 0 {
			continue
		}

		decay := math.Pow(c.config.InteractionDecay, float64(clusterCounts[distance]))
		clusterCounts[distance]++

		contributions = append(contributions, contribution{
			interaction: interaction,
			distance:    distance,
			weight:      actorWeight * interaction.Type.SignalWeight() * decay,
		})
	}
	return contributions
}

// qualitySignals folds the weighted contributions into [0, 1]. The raw sum
// saturates so a pile-on from one cluster cannot run the component to 1 by
// volume alone, and net-negative signal clamps to 0.
func (c *Calculator) qualitySignals(contributions []contribution) float64 {
	var raw float64
	for _, contrib := range contributions {
		raw += contrib.weight
	}
	return clamp01(raw / qualitySaturation)
}

// recencyFactor decays content age exponentially against the half-life,
// floored so old content stays rankable.
func (c *Calculator) recencyFactor(createdAt, now time.Time) float64 {
	ageDays := timeutil.DaysSince(createdAt, now)
	factor := math.Pow(0.5, ageDays/c.config.RecencyHalfLifeDays)
	if factor < c.config.RecencyFloor {
		return c.config.RecencyFloor
	}
	return factor
}

// diversityBonus rewards signal spread over concentration: the average of
// the normalized entropies of the distance and interaction-type
// distributions. Twenty interactions from one cluster score zero here; a
// handful spread across distances and types scores high.
func (c *Calculator) diversityBonus(contributions []contribution) float64 {
	if len(contributions) == 0 {
		return 0
	}

	distanceCounts := make(map[int]int)
	typeCounts := make(map[InteractionType]int)
	for _, contrib := range contributions {
		distanceCounts[contrib.distance]++
		typeCounts[contrib.interaction.Type]++
	}

	// Three distance buckets (0, 1, 2) and four interaction types.
	distanceEntropy := normalizedEntropy(intCountValues(distanceCounts), 3)
	typeEntropy := normalizedEntropy(typeCountValues(typeCounts), 4)

	return clamp01((distanceEntropy + typeEntropy) / 2)
}

// confidence reflects evidence volume only. Connections count for a fifth of
// an interaction each; the curve crosses 0.5 at confidenceHalfPoint.
func (c *Calculator) confidence(connectionCount, contributionCount int) float64 {
	evidence := float64(contributionCount) + 0.2*float64(connectionCount)
	return evidence / (evidence + confidenceHalfPoint)
}

// socialPath lists the most-contributing users, author first, then
// interaction actors by absolute contribution. Ties break on user ID so the
// path is stable across runs.
func (c *Calculator) socialPath(distances *distanceCache, authorID graph.UserID, socialTrust float64, contributions []contribution) []PathEntry {
	perActor := make(map[graph.UserID]*PathEntry)
	order := make([]graph.UserID, 0, len(contributions))
	for _, contrib := range contributions {
		actorID := contrib.interaction.UserID
		entry, ok := perActor[actorID]
		if !ok {
			entry = &PathEntry{UserID: actorID, Distance: contrib.distance}
			perActor[actorID] = entry
			order = append(order, actorID)
		}
		entry.ContributionWeight += math.Abs(contrib.weight)
	}

	entries := make([]PathEntry, 0, len(order)+1)
	if socialTrust > 0 {
		entries = append(entries, PathEntry{
			UserID:             authorID,
			Distance:           distances.lookup(authorID),
			ContributionWeight: round3(socialTrust),
		})
	}

	actorEntries := make([]PathEntry, 0, len(order))
	for _, actorID := range order {
		entry := *perActor[actorID]
		if entry.UserID == authorID && socialTrust > 0 {
			// Author already listed with the social component.
			entries[0].ContributionWeight = round3(entries[0].ContributionWeight + entry.ContributionWeight)
			continue
		}
		entry.ContributionWeight = round3(entry.ContributionWeight)
		actorEntries = append(actorEntries, entry)
	}
	sort.SliceStable(actorEntries, func(i, j int) bool {
		if actorEntries[i].ContributionWeight != actorEntries[j].ContributionWeight {
			return actorEntries[i].ContributionWeight > actorEntries[j].ContributionWeight
		}
		return actorEntries[i].UserID < actorEntries[j].UserID
	})

	entries = append(entries, actorEntries...)
	if len(entries) > maxPathEntries {
		entries = entries[:maxPathEntries]
	}
	return entries
}

// ──────────────────────────────────────────────────────────────────────────────
// Adjacency index and distance cache
// ──────────────────────────────────────────────────────────────────────────────

// adjacencyIndex is the request-scoped view of the supplied connections:
// per-user outbound sets plus a sorted, fan-out-capped neighbor list for
// two-hop probing.
type adjacencyIndex struct {
	outbound map[graph.UserID]map[graph.UserID]bool
	capped   map[graph.UserID][]graph.UserID
}

func buildAdjacencyIndex(connections []Connection, fanOutCap int) *adjacencyIndex {
	index := &adjacencyIndex{
		outbound: make(map[graph.UserID]map[graph.UserID]bool),
		capped:   make(map[graph.UserID][]graph.UserID),
	}

	perUser := make(map[graph.UserID][]Connection)
	for _, conn := range connections {
		set, ok := index.outbound[conn.FollowerID]
		if !ok {
			set = make(map[graph.UserID]bool)
			index.outbound[conn.FollowerID] = set
		}
		if set[conn.FollowedID] {
			continue
		}
		set[conn.FollowedID] = true
		perUser[conn.FollowerID] = append(perUser[conn.FollowerID], conn)
	}

	// Oldest edges first, ties on followed ID, then cap. Matches the
	// resolver's traversal order so both layers agree on which neighbors a
	// high fan-out user exposes.
	for userID, edges := range perUser {
		sort.SliceStable(edges, func(i, j int) bool {
			if !edges[i].Timestamp.Equal(edges[j].Timestamp) {
				return edges[i].Timestamp.Before(edges[j].Timestamp)
			}
			return edges[i].FollowedID < edges[j].FollowedID
		})
		if len(edges) > fanOutCap {
			edges = edges[:fanOutCap]
		}
		neighbors := make([]graph.UserID, len(edges))
		for i, edge := range edges {
			neighbors[i] = edge.FollowedID
		}
		index.capped[userID] = neighbors
	}

	return index
}

// distanceCache memoizes social distances from one evaluating user.
// Distance -1 means unreachable within maxDepth.
type distanceCache struct {
	index     *adjacencyIndex
	evaluator graph.UserID
	maxDepth  int
	known     map[graph.UserID]int
}

func newDistanceCache(index *adjacencyIndex, evaluator graph.UserID, maxDepth int) *distanceCache {
	return &distanceCache{
		index:     index,
		evaluator: evaluator,
		maxDepth:  maxDepth,
		known:     make(map[graph.UserID]int),
	}
}

func (d *distanceCache) lookup(target graph.UserID) int {
	if target == d.evaluator {
		return 0
	}
	if distance, ok := d.known[target]; ok {
		return distance
	}

	distance := d.resolve(target)
	d.known[target] = distance
	return distance
}

func (d *distanceCache) resolve(target graph.UserID) int {
	direct := d.index.outbound[d.evaluator]
	if direct[target] {
		return 1
	}
	if d.maxDepth < 2 {
		return -1
	}
	for _, mid := range d.index.capped[d.evaluator] {
		if mid == target {
			continue
		}
		if d.index.outbound[mid][target] {
			return 2
		}
	}
	return -1
}

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

// sortInteractions orders by timestamp, then actor, then type, so decay is
// applied in a stable order.
func sortInteractions(interactions []UserInteraction) {
	sort.SliceStable(interactions, func(i, j int) bool {
		if !interactions[i].Timestamp.Equal(interactions[j].Timestamp) {
			return interactions[i].Timestamp.Before(interactions[j].Timestamp)
		}
		if interactions[i].UserID != interactions[j].UserID {
			return interactions[i].UserID < interactions[j].UserID
		}
		return interactions[i].Type < interactions[j].Type
	})
}

// normalizedEntropy returns the Shannon entropy of counts normalized by the
// maximum entropy over bucketSpace buckets, in [0, 1].
func normalizedEntropy(counts []int, bucketSpace int) float64 {
	if bucketSpace <= 1 {
		return 0
	}
	var total int
	for _, count := range counts {
		total += count
	}
	if total == 0 {
		return 0
	}

	var entropy float64
	for _, count := range counts {
		if count == 0 {
			continue
		}
		p := float64(count) / float64(total)
		entropy -= p * math.Log(p)
	}
	return entropy / math.Log(float64(bucketSpace))
}

func intCountValues(counts map[int]int) []int {
	values := make([]int, 0, len(counts))
	for _, count := range counts {
		values = append(values, count)
	}
	return values
}

func typeCountValues(counts map[InteractionType]int) []int {
	values := make([]int, 0, len(counts))
	for _, count := range counts {
		values = append(values, count)
	}
	return values
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
