package assessments

import "sort"

// Roadblock is one item in the fixed assessment sequence. Order matters: it
// drives the flow and breaks rating ties when computing top roadblocks.
type Roadblock struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Prompt string `json:"prompt"`
}

var roadblockCatalog = []Roadblock{
	{ID: "no_clear_pathway", Title: "No Clear Pathway", Prompt: "We lack a defined, reproducible discipleship pathway."},
	{ID: "leader_pipeline", Title: "Leader Pipeline", Prompt: "We struggle to identify and develop new disciple-making leaders."},
	{ID: "consumer_culture", Title: "Consumer Culture", Prompt: "Our people attend but rarely multiply what they receive."},
	{ID: "busy_calendar", Title: "Busy Calendar", Prompt: "Programs crowd out relational disciple-making time."},
	{ID: "accountability_gap", Title: "Accountability Gap", Prompt: "Commitments rarely come with follow-through or check-ins."},
	{ID: "biblical_literacy", Title: "Biblical Literacy", Prompt: "Our people are not confident handling Scripture themselves."},
	{ID: "evangelism_fear", Title: "Evangelism Fear", Prompt: "Members hesitate to share their faith outside the church."},
	{ID: "staff_alignment", Title: "Staff Alignment", Prompt: "Staff and elders are not aligned on the disciple-making vision."},
}

// Roadblocks returns the fixed ordered catalog.
func Roadblocks() []Roadblock {
	out := make([]Roadblock, len(roadblockCatalog))
	copy(out, roadblockCatalog)
	return out
}

// KnownRoadblock reports whether the id exists in the catalog.
func KnownRoadblock(id string) bool {
	for _, roadblock := range roadblockCatalog {
		if roadblock.ID == id {
			return true
		}
	}
	return false
}

// TopRoadblocks selects the ids rated 3 or higher, ordered by rating
// descending with ties broken by catalog order, truncated to three. Fewer
// than three qualifying ratings yield a shorter (possibly empty) list.
func TopRoadblocks(ratings map[string]int) []string {
	type scored struct {
		id     string
		rating int
	}

	qualifying := make([]scored, 0, len(ratings))
	for _, roadblock := range roadblockCatalog {
		if rating, ok := ratings[roadblock.ID]; ok && rating >= 3 {
			qualifying = append(qualifying, scored{id: roadblock.ID, rating: rating})
		}
	}

	sort.SliceStable(qualifying, func(i, j int) bool {
		return qualifying[i].rating > qualifying[j].rating
	})

	top := make([]string, 0, 3)
	for _, item := range qualifying {
		if len(top) == 3 {
			break
		}
		top = append(top, item.id)
	}
	return top
}
