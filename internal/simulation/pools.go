package simulation

import "crowd-sim/internal/domain"

// Vocabularios fijos para la generación de personas. Se mantienen como tablas
// de datos explícitas para poder probarlas y ajustarlas sin tocar el muestreo.

var firstNamePool = map[string][]string{
	"male":      {"James", "Michael", "Robert", "David", "William", "Jose", "Marcus", "Anthony", "Kevin", "Brian", "Derek", "Carlos", "Ahmed", "Wei", "Raj"},
	"female":    {"Mary", "Jennifer", "Lisa", "Sarah", "Jessica", "Maria", "Ashley", "Michelle", "Keisha", "Priya", "Mei", "Fatima", "Elena", "Nicole", "Amanda"},
	"nonbinary": {"Alex", "Jordan", "Taylor", "Casey", "Morgan", "Riley", "Quinn", "Avery", "Sage", "River"},
}

var lastNamePool = []string{"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis", "Rodriguez", "Martinez", "Chen", "Patel", "Kim", "Nguyen", "O'Brien"}

var locationPool = map[string][]string{
	"urban":    {"New York, NY", "Los Angeles, CA", "Chicago, IL", "Houston, TX", "Phoenix, AZ", "Philadelphia, PA", "San Antonio, TX", "San Diego, CA", "Dallas, TX", "Austin, TX"},
	"suburban": {"Naperville, IL", "Plano, TX", "Scottsdale, AZ", "Irvine, CA", "Bellevue, WA", "Raleigh, NC", "Henderson, NV", "Chandler, AZ", "Gilbert, AZ", "Frisco, TX"},
	"rural":    {"Bozeman, MT", "Asheville, NC", "Burlington, VT", "Bend, OR", "Flagstaff, AZ", "Rapid City, SD", "Fargo, ND", "Billings, MT", "Cheyenne, WY", "Missoula, MT"},
}

var occupationPool = map[string][]string{
	"professional": {"Software Engineer", "Marketing Manager", "Financial Analyst", "Product Manager", "UX Designer", "Data Scientist", "Consultant", "Attorney", "Physician", "Architect"},
	"service":      {"Nurse", "Teacher", "Sales Associate", "Customer Service Rep", "Administrative Assistant", "Real Estate Agent", "Insurance Agent", "Social Worker", "Librarian", "Flight Attendant"},
	"trade":        {"Electrician", "Plumber", "HVAC Technician", "Carpenter", "Auto Mechanic", "Welder", "Construction Manager", "Chef", "Machinist", "Heavy Equipment Operator"},
	"creative":     {"Graphic Designer", "Content Creator", "Photographer", "Writer", "Musician", "Video Editor", "Art Director", "Fashion Designer", "Interior Designer", "Game Developer"},
}

var valuePool = []string{"family", "success", "adventure", "security", "creativity", "independence", "community", "health", "knowledge", "spirituality", "sustainability", "authenticity", "tradition", "innovation", "justice"}

var interestPool = []string{"fitness", "cooking", "travel", "technology", "sports", "music", "reading", "gaming", "gardening", "photography", "fashion", "investing", "podcasts", "DIY projects", "volunteering", "art", "pets", "outdoor activities", "meditation", "social media"}

var personalityPool = []string{"analytical", "creative", "practical", "social", "ambitious", "cautious", "adventurous", "nurturing", "independent", "collaborative"}

var lifestylePool = []string{"health-conscious", "career-focused", "family-oriented", "minimalist", "luxury-seeking", "eco-conscious", "tech-savvy", "traditional", "adventurous", "homebody"}

var mediaChannelPool = []string{"Instagram", "Facebook", "Twitter/X", "TikTok", "YouTube", "LinkedIn", "Podcasts", "Cable TV", "Streaming Services", "Print Magazines", "News Websites", "Reddit", "Email Newsletters"}

var brandLoyaltyPool = []string{"very loyal", "somewhat loyal", "neutral", "variety seeker"}

var shoppingBehaviorPool = []string{"bargain hunter", "quality focused", "convenience driven", "research intensive", "impulse buyer"}

// Distribuciones demográficas default cuando el segmento no declara las suyas.
var (
	defaultGenders = []domain.WeightedOption{
		{Value: "male", Weight: 0.48},
		{Value: "female", Weight: 0.48},
		{Value: "nonbinary", Weight: 0.04},
	}
	defaultLocationTypes = []domain.WeightedOption{
		{Value: "urban", Weight: 0.4},
		{Value: "suburban", Weight: 0.45},
		{Value: "rural", Weight: 0.15},
	}
	defaultEducationLevels = []domain.WeightedOption{
		{Value: "High School", Weight: 0.2},
		{Value: "Some College", Weight: 0.2},
		{Value: "Bachelor's", Weight: 0.35},
		{Value: "Master's", Weight: 0.2},
		{Value: "Doctorate", Weight: 0.05},
	}
	defaultIncomeRanges = []domain.WeightedOption{
		{Value: "Under $30k", Weight: 0.15},
		{Value: "$30k-$50k", Weight: 0.2},
		{Value: "$50k-$75k", Weight: 0.25},
		{Value: "$75k-$100k", Weight: 0.2},
		{Value: "$100k-$150k", Weight: 0.12},
		{Value: "$150k+", Weight: 0.08},
	}
	defaultOccupationTypes = []domain.WeightedOption{
		{Value: "professional", Weight: 0.35},
		{Value: "service", Weight: 0.3},
		{Value: "trade", Weight: 0.2},
		{Value: "creative", Weight: 0.15},
	}
	defaultMaritalStatuses = []domain.WeightedOption{
		{Value: "Single", Weight: 0.3},
		{Value: "Married", Weight: 0.45},
		{Value: "Divorced", Weight: 0.1},
		{Value: "Widowed", Weight: 0.05},
		{Value: "Partnered", Weight: 0.1},
	}
)

// Conjuntos conductuales default.
var (
	defaultDecisionStyles = []string{"analytical", "intuitive", "deliberate", "impulsive"}
	defaultRiskTolerances = []string{"low", "medium", "high"}
	defaultTechAdoptions  = []string{"innovator", "early_adopter", "early_majority", "late_majority", "laggard"}
)

// Límites de cardinalidad de los campos psicográficos.
const (
	maxPersonaValues    = 4
	maxPersonaInterests = 6
)

// bigFiveAdjustment mapea una pista de personalidad del segmento a un ajuste
// aditivo sobre un rasgo Big Five.
type bigFiveAdjustment struct {
	trait string
	delta int
}

// personalityHintAdjustments es la tabla de ajustes por pista.
var personalityHintAdjustments = map[string]bigFiveAdjustment{
	"adventurous": {trait: "openness", delta: 20},
	"organized":   {trait: "conscientiousness", delta: 15},
	"social":      {trait: "extraversion", delta: 20},
	"cooperative": {trait: "agreeableness", delta: 15},
	"anxious":     {trait: "neuroticism", delta: 20},
}

// coherencePairs lista pares lifestyle/decision-style considerados
// internamente coherentes para el puntaje de confianza.
var coherencePairs = [][2]string{
	{"health-conscious", "deliberate"},
	{"career-focused", "analytical"},
	{"adventurous", "intuitive"},
	{"traditional", "deliberate"},
	{"tech-savvy", "analytical"},
}

// questionTypeBaseScores es el puntaje base de claridad por tipo: algunos
// tipos son inherentemente más difíciles de simular.
var questionTypeBaseScores = map[domain.QuestionType]int{
	domain.QuestionMultipleChoice: 85,
	domain.QuestionLikert:         80,
	domain.QuestionRanking:        70,
	domain.QuestionOpenEnded:      60,
	domain.QuestionMatrix:         75,
	domain.QuestionNPS:            80,
	domain.QuestionYesNo:          85,
}

const defaultQuestionTypeBaseScore = 65

// responseTimeBases es el tiempo base simulado por tipo, en milisegundos.
var responseTimeBases = map[domain.QuestionType]int{
	domain.QuestionMultipleChoice: 3000,
	domain.QuestionLikert:         2500,
	domain.QuestionOpenEnded:      15000,
	domain.QuestionRanking:        8000,
	domain.QuestionMatrix:         5000,
	domain.QuestionNPS:            2500,
	domain.QuestionYesNo:          2000,
}

const defaultResponseTimeBase = 5000

// openingsByPersonality arranca las respuestas abiertas según personalidad.
var openingsByPersonality = map[string]string{
	"analytical":    "From my perspective,",
	"creative":      "I think",
	"practical":     "In my experience,",
	"social":        "What I've noticed is",
	"ambitious":     "Looking at this strategically,",
	"cautious":      "To be honest,",
	"adventurous":   "I'd say",
	"nurturing":     "What matters to me is",
	"independent":   "Personally,",
	"collaborative": "Based on what I've discussed with others,",
}

// opinionsByDecisionStyle cierra las respuestas abiertas según estilo de decisión.
var opinionsByDecisionStyle = map[string]string{
	"analytical": "I've carefully considered this and feel that the key factors are quality and reliability.",
	"intuitive":  "my gut tells me that authenticity and emotional connection matter most.",
	"deliberate": "after thinking about this thoroughly, I believe consistency is essential.",
	"impulsive":  "what immediately stands out to me is the need for something exciting and new.",
}
