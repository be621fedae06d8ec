package model

// GravityField is the per-session accumulator of importance mass. It is
// written by the ingestion pipeline and only read during recall; a missing
// field is a zero-mass field, never an error.
type GravityField struct {
	SessionID     SessionID
	TotalMass     float64
	EntityAnchors map[string]float64 // entity -> accumulated mass
	RecentPeaks   []RecordID         // recent high-importance record ids
}

// ZeroGravityField returns the empty field substituted when the gravity
// store has nothing for a session.
func ZeroGravityField(sessionID SessionID) *GravityField {
	return &GravityField{SessionID: sessionID}
}

// AnchorMass returns the accumulated mass for an entity, 0 when unknown.
func (g *GravityField) AnchorMass(entity string) float64 {
	if g == nil || g.EntityAnchors == nil {
		return 0
	}
	return g.EntityAnchors[entity]
}
