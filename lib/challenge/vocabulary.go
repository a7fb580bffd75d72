package challenge

// Vocabulary is fixed list correct answers are drawn from.
// Repeated entries are kept as they affect draw probabilities.
var Vocabulary = [...]string{
	"sunshine", "rainbow", "ocean", "mountain", "forest",
	"star", "moon", "flower", "butterfly", "cloud",
	"river", "island", "valley", "desert", "canyon",
	"meadow", "glacier", "volcano", "lake", "waterfall",
	"wind", "fire", "earth", "air", "snow",
	"ice", "mist", "dew", "frost", "hail",
	"thunder", "lightning", "storm", "hurricane", "tornado",
	"drizzle", "shower", "blizzard", "fog", "smog",
	"planet", "comet", "asteroid", "galaxy", "nebula",
	"universe", "constellation", "meteor", "meteorite",
	"tree", "leaf", "branch", "root", "bark",
	"grass", "weed", "vine", "fern", "moss",
	"bamboo", "pinecone", "acorn", "seed", "bud",
	"blossom", "lion", "tiger", "bear", "wolf",
	"fox", "deer", "rabbit", "squirrel", "bird",
	"eagle", "dove", "sparrow", "owl", "fish",
	"shark", "whale", "dolphin", "turtle", "snake",
	"lizard", "frog", "toad", "bee", "ant",
	"spider", "worm", "love", "joy", "happiness",
	"peace", "hope", "faith", "courage", "confidence",
	"pride", "excitement", "enthusiasm", "contentment", "gratitude",
	"kindness", "compassion", "empathy", "friendship", "loyalty",
	"trust", "sadness", "grief", "anger", "hate",
	"fear", "anxiety", "worry", "stress", "loneliness",
	"envy", "jealousy", "regret", "guilt", "shame",
	"wisdom", "intelligence", "creativity", "perseverance", "patience",
	"tolerance", "generosity", "honesty", "integrity", "humility",
	"bravery", "selflessness", "responsibility", "determination",
	"sight", "sound", "smell", "taste", "touch",
	"vision", "hearing", "aroma", "flavor", "texture",
	"pain", "pleasure", "warmth", "cold", "light",
	"dark", "soul", "spirit", "god", "goddess",
	"angel", "demon", "heaven", "hell", "karma",
	"reincarnation", "meditation", "prayer", "shrine", "temple",
	"church", "mosque", "synagogue", "truth", "beauty",
	"good", "evil", "justice", "freedom", "equality",
	"virtue", "vice", "logic", "reason", "ethics",
	"morality", "aesthetics", "ontology", "epistemology",
	"time", "space", "moment", "hour", "day",
	"week", "month", "year", "decade", "century",
	"millennium", "past", "present", "future", "distance",
	"height", "width", "depth", "length", "area",
	"volume", "red", "blue", "green", "yellow",
	"black", "white", "purple", "pink", "orange",
	"brown", "gray", "silver", "gold", "bronze",
	"turquoise", "violet", "heart", "cross", "star of David",
	"crescent moon", "yin - yang", "peace sign", "dove", "olive branch",
	"rose", "lotus", "anchor", "ladder", "idea",
	"thought", "concept", "theory", "knowledge", "information",
	"power", "energy", "art", "culture", "history",
	"memory", "dream", "fantasy", "reality", "illusion",
}

var vocabSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Vocabulary))
	for _, w := range Vocabulary {
		m[w] = struct{}{}
	}
	return m
}()
