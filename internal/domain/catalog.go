package domain

// Badge is a permanent achievement unlocked at a points threshold
type Badge struct {
	ID             string `json:"id" yaml:"id"`
	Name           string `json:"name" yaml:"name"`
	Description    string `json:"description" yaml:"description"`
	Icon           string `json:"icon" yaml:"icon"`
	PointsRequired int64  `json:"points_required" yaml:"points_required"`
}

// RewardCategory groups rewards in the catalog
type RewardCategory string

const (
	CategoryAirtime        RewardCategory = "airtime"
	CategorySchoolSupplies RewardCategory = "school_supplies"
	CategoryHealth         RewardCategory = "health"
)

// Reward is something eco-points can be exchanged for
type Reward struct {
	ID          string         `json:"id" yaml:"id"`
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description" yaml:"description"`
	PointsCost  int64          `json:"points_cost" yaml:"points_cost"`
	Category    RewardCategory `json:"category" yaml:"category"`
	ImageURL    string         `json:"image_url,omitempty" yaml:"image_url"`
	Available   bool           `json:"available" yaml:"available"`
}

// QuizQuestion is a multiple-choice recycling question
type QuizQuestion struct {
	ID          string   `json:"id" yaml:"id"`
	Question    string   `json:"question" yaml:"question"`
	Options     []string `json:"options" yaml:"options"`
	Correct     int      `json:"correct" yaml:"correct"`
	Explanation string   `json:"explanation" yaml:"explanation"`
	Points      int64    `json:"points" yaml:"points"`
}

// PublicQuestion hides the answer from clients
type PublicQuestion struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Points   int64    `json:"points"`
}

// Public strips the correct index and explanation.
func (q QuizQuestion) Public() PublicQuestion {
	return PublicQuestion{ID: q.ID, Question: q.Question, Options: q.Options, Points: q.Points}
}

// Catalog is the static reference data, loaded once at startup and never
// mutated afterwards.
type Catalog struct {
	WasteTypes []WasteType    `json:"waste_types" yaml:"waste_types"`
	Badges     []Badge        `json:"badges" yaml:"badges"`
	Rewards    []Reward       `json:"rewards" yaml:"rewards"`
	Questions  []QuizQuestion `json:"questions" yaml:"questions"`
}

// Reward looks up a reward by id
func (c *Catalog) Reward(id string) (Reward, bool) {
	for _, r := range c.Rewards {
		if r.ID == id {
			return r, true
		}
	}
	return Reward{}, false
}

// Question looks up a quiz question by id
func (c *Catalog) Question(id string) (QuizQuestion, bool) {
	for _, q := range c.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return QuizQuestion{}, false
}

// WasteType looks up a waste type by id
func (c *Catalog) WasteType(id string) (WasteType, bool) {
	return FindWasteType(c.WasteTypes, id)
}

// RewardsByCategory filters the reward catalog. An empty category or "all"
// returns every reward.
func (c *Catalog) RewardsByCategory(category string) []Reward {
	out := make([]Reward, 0, len(c.Rewards))
	for _, r := range c.Rewards {
		if category == "" || category == "all" || string(r.Category) == category {
			out = append(out, r)
		}
	}
	return out
}

// RewardCounts returns the number of rewards per category plus "all".
func (c *Catalog) RewardCounts() map[string]int {
	counts := map[string]int{"all": len(c.Rewards)}
	for _, r := range c.Rewards {
		counts[string(r.Category)]++
	}
	return counts
}

// DefaultCatalog returns the built-in program catalog.
func DefaultCatalog() *Catalog {
	return &Catalog{
		WasteTypes: []WasteType{
			{ID: "plastic", Name: "Plastic Bottles", Icon: "🍼", PointsPerKg: 50,
				Examples: []string{"Water bottles", "Soda bottles", "Milk jugs"},
				WeightTip: "About 20 plastic bottles weigh 1kg"},
			{ID: "cans", Name: "Aluminum Cans", Icon: "🥤", PointsPerKg: 80,
				Examples: []string{"Soda cans", "Juice cans", "Food cans"},
				WeightTip: "About 60 cans weigh 1kg"},
			{ID: "paper", Name: "Paper & Cardboard", Icon: "📄", PointsPerKg: 30,
				Examples: []string{"Notebooks", "Newspapers", "Cardboard boxes"},
				WeightTip: "A stack of 10 notebooks weighs about 1kg"},
			{ID: "glass", Name: "Glass Bottles", Icon: "🫙", PointsPerKg: 40,
				Examples: []string{"Glass bottles", "Jars", "Glass containers"},
				WeightTip: "About 3 glass bottles weigh 1kg"},
			{ID: "ewaste", Name: "Electronic Waste", Icon: "📱", PointsPerKg: 200,
				Examples: []string{"Old phones", "Batteries", "Small electronics"},
				WeightTip: "An old phone weighs about 0.15kg"},
		},
		Badges: []Badge{
			{ID: "first-steps", Name: "First Steps", Description: "Logged your first recyclable", Icon: "🌱", PointsRequired: 0},
			{ID: "eco-warrior", Name: "Eco Warrior", Description: "Collected 10kg of recyclables", Icon: "♻️", PointsRequired: 500},
			{ID: "green-champion", Name: "Green Champion", Description: "Earned 1000 eco-points", Icon: "🏆", PointsRequired: 1000},
			{ID: "planet-protector", Name: "Planet Protector", Description: "Collected 50kg of recyclables", Icon: "🌍", PointsRequired: 2500},
			{ID: "recycling-master", Name: "Recycling Master", Description: "Earned 5000 eco-points", Icon: "🎖️", PointsRequired: 5000},
		},
		Rewards: []Reward{
			{ID: "mtn-airtime-200", Name: "MTN Airtime ₦200", Description: "Get ₦200 MTN airtime credit for your phone",
				PointsCost: 400, Category: CategoryAirtime, Available: true},
			{ID: "notebook-set", Name: "Notebook Set", Description: "5 exercise books perfect for school use",
				PointsCost: 300, Category: CategorySchoolSupplies, Available: true},
			{ID: "glo-airtime-500", Name: "Glo Airtime ₦500", Description: "Get ₦500 Glo airtime credit for your phone",
				PointsCost: 950, Category: CategoryAirtime, Available: true},
			{ID: "water-tablets", Name: "Water Purification Tablets", Description: "30-day supply of water purification tablets",
				PointsCost: 600, Category: CategoryHealth, Available: true},
			{ID: "pencil-case", Name: "Pencil Case + Stationery", Description: "Complete pencil case with pens, pencils, and erasers",
				PointsCost: 450, Category: CategorySchoolSupplies, Available: true},
			{ID: "first-aid-kit", Name: "First Aid Kit", Description: "Basic first aid kit for family use",
				PointsCost: 800, Category: CategoryHealth, Available: false},
		},
		Questions: []QuizQuestion{
			{ID: "plastic-decompose", Question: "How long does it take for a plastic bottle to decompose in nature?",
				Options: []string{"1 year", "10 years", "50 years", "450+ years"}, Correct: 3, Points: 50,
				Explanation: "Plastic bottles take 450+ years to decompose, which is why recycling them is so important!"},
			{ID: "infinite-recycling", Question: "Which material can be recycled the most times without losing quality?",
				Options: []string{"Paper", "Plastic", "Aluminum", "Glass"}, Correct: 2, Points: 50,
				Explanation: "Aluminum can be recycled infinitely without losing its properties, making it extremely valuable!"},
			{ID: "paper-carbon", Question: "What happens to the carbon footprint when we recycle paper?",
				Options: []string{"Increases by 20%", "Stays the same", "Reduces by 35%", "Reduces by 70%"}, Correct: 3, Points: 50,
				Explanation: "Recycling paper reduces carbon emissions by about 70% compared to making new paper from trees!"},
			{ID: "aluminum-energy", Question: "How much energy does recycling aluminum cans save compared to making new ones?",
				Options: []string{"25%", "50%", "75%", "95%"}, Correct: 3, Points: 50,
				Explanation: "Recycling aluminum cans uses 95% less energy than producing new ones from raw materials!"},
		},
	}
}
