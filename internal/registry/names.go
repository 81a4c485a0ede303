package registry

import "math/rand/v2"

// frenchNameProbability is the probability of generating a French name when
// realistic names are enabled.
const frenchNameProbability = 0.20

var (
	englishMaleFirstNames = []string{
		"James", "John", "Robert", "Michael", "William", "David", "Richard", "Joseph",
		"Thomas", "Charles", "Christopher", "Daniel", "Matthew", "Anthony", "Mark",
		"Donald", "Steven", "Paul", "Andrew", "Joshua", "Kenneth", "Kevin", "Brian",
		"George", "Timothy", "Ronald", "Edward", "Jason", "Jeffrey", "Ryan",
		"Nathan", "Henry", "Douglas", "Zachary", "Peter", "Kyle", "Noah", "Ethan",
		"Vincent", "Logan", "Luke", "Caleb", "Evan", "Ian", "Connor", "Adrian",
	}

	englishFemaleFirstNames = []string{
		"Mary", "Patricia", "Jennifer", "Linda", "Barbara", "Elizabeth", "Susan", "Jessica",
		"Sarah", "Karen", "Lisa", "Nancy", "Betty", "Margaret", "Sandra", "Ashley",
		"Kimberly", "Emily", "Donna", "Michelle", "Dorothy", "Carol", "Amanda", "Melissa",
		"Victoria", "Kelly", "Lauren", "Christina", "Joan", "Evelyn", "Judith", "Megan",
		"Julia", "Judy", "Sophia", "Grace", "Denise", "Amber", "Doris", "Marilyn",
		"Lily", "Zoe", "Audrey", "Hazel", "Violet", "Aurora", "Savannah", "Brooklyn",
	}

	englishLastNames = []string{
		"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis",
		"Rodriguez", "Martinez", "Hernandez", "Lopez", "Gonzalez", "Wilson", "Anderson", "Thomas",
		"Taylor", "Moore", "Jackson", "Martin", "Lee", "Perez", "Thompson", "White",
		"Harris", "Sanchez", "Clark", "Ramirez", "Lewis", "Robinson", "Walker", "Young",
		"Cook", "Rogers", "Gutierrez", "Ortiz", "Morgan", "Cooper", "Peterson", "Bailey",
		"West", "Cole", "Hayes", "Bryant", "Herrera", "Gibson", "Ellis", "Tran",
	}

	frenchMaleFirstNames = []string{
		"Jean", "Pierre", "Michel", "André", "Philippe", "Alain", "Bernard", "Jacques",
		"François", "Christian", "Daniel", "Patrick", "Nicolas", "Olivier", "Laurent",
		"Thierry", "Stéphane", "Éric", "David", "Julien", "Christophe", "Pascal",
		"Sébastien", "Marc", "Vincent", "Antoine", "Alexandre", "Maxime", "Thomas",
	}

	frenchFemaleFirstNames = []string{
		"Marie", "Nathalie", "Isabelle", "Sylvie", "Catherine", "Françoise", "Valérie",
		"Christine", "Monique", "Sophie", "Patricia", "Martine", "Nicole", "Sandrine",
		"Stéphanie", "Céline", "Julie", "Aurélie", "Caroline", "Laurence", "Émilie",
		"Claire", "Anne", "Camille", "Laura", "Sarah", "Manon", "Emma", "Léa",
	}

	frenchLastNames = []string{
		"Martin", "Bernard", "Dubois", "Thomas", "Robert", "Richard", "Petit",
		"Durand", "Leroy", "Moreau", "Simon", "Laurent", "Lefebvre", "Michel",
		"Garcia", "David", "Bertrand", "Roux", "Vincent", "Fournier", "Morel",
		"Girard", "André", "Lefevre", "Mercier", "Dupont", "Lambert", "Bonnet",
	}
)

// realisticName generates a realistic patient name for the given sex.
// Names are 80% English and 20% French. Sex should be "M" or "F"; any other
// value draws from the female pools.
//
// Returns the name in DICOM two-part form: "LASTNAME^FIRSTNAME".
func realisticName(sex string, rng *rand.Rand) string {
	useFrench := rng.Float64() < frenchNameProbability

	var firstName, lastName string
	if useFrench {
		if sex == "M" {
			firstName = frenchMaleFirstNames[rng.IntN(len(frenchMaleFirstNames))]
		} else {
			firstName = frenchFemaleFirstNames[rng.IntN(len(frenchFemaleFirstNames))]
		}
		lastName = frenchLastNames[rng.IntN(len(frenchLastNames))]
	} else {
		if sex == "M" {
			firstName = englishMaleFirstNames[rng.IntN(len(englishMaleFirstNames))]
		} else {
			firstName = englishFemaleFirstNames[rng.IntN(len(englishFemaleFirstNames))]
		}
		lastName = englishLastNames[rng.IntN(len(englishLastNames))]
	}

	return lastName + "^" + firstName
}
