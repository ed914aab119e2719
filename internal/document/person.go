package document

import (
	"github.com/brianvoe/gofakeit/v6"
)

// Person is the default document shape.
type Person struct {
	FirstName     string     `json:"firstName"`
	LastName      string     `json:"lastName"`
	Age           int        `json:"age"`
	Email         string     `json:"email"`
	Address       Address    `json:"address"`
	Gender        string     `json:"gender"`
	MaritalStatus string     `json:"maritalStatus"`
	Hobbies       []string   `json:"hobbies"`
	Attributes    Attributes `json:"attributes"`
	Payload       string     `json:"payload,omitempty"`
}

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zipcode string `json:"zipcode"`
	Country string `json:"country"`
}

type Hair struct {
	Type      string `json:"type"`
	Colour    string `json:"colour"`
	Length    string `json:"length"`
	Thickness string `json:"thickness"`
}

type Attributes struct {
	Weight   int    `json:"weight"`
	Height   int    `json:"height"`
	Colour   string `json:"colour"`
	Hair     Hair   `json:"hair"`
	BodyType string `json:"bodyType"`
}

var (
	maritalChoices = []string{"Single", "Married", "Divorcee"}
	bodyColours    = []string{"Dark", "Fair", "Brown", "Grey"}
	hobbyChoices   = []string{
		"Video Gaming", "Football", "Basketball", "Cricket", "Hockey", "Running", "Walking",
		"Guitar", "Flute", "Piano", "Chess", "Puzzle", "Skating", "Travelling",
	}
	hairTypes       = []string{"straight", "wavy", "curly", "coily"}
	hairColours     = []string{"Red", "Green", "Yellow", "Grey", "Brown", "Black"}
	hairLengths     = []string{"Long", "Short", "Medium"}
	hairThicknesses = []string{"Thick", "Thin", "Medium"}
	bodyTypes       = []string{
		"Ectomorph", "Endomorph", "Mesomorph", "Triangle", "Inverted triangle",
		"Rectangle", "Hourglass", "Apple",
	}
	genders = []string{"male", "female", "other"}
)

// PersonGenerator builds randomized Person documents from its own faker.
type PersonGenerator struct {
	faker *gofakeit.Faker
}

// NewPersonGenerator returns a generator seeded with seed. A zero seed draws a random one.
func NewPersonGenerator(seed int64) *PersonGenerator {
	return &PersonGenerator{faker: gofakeit.New(seed)}
}

// Generate returns a Person padded to at least size bytes.
func (g *PersonGenerator) Generate(size int) interface{} {
	return g.Person(size)
}

// Person builds one Person. The payload field is only set when the base document is
// smaller than size.
func (g *PersonGenerator) Person(size int) *Person {
	f := g.faker
	p := &Person{
		FirstName:     f.FirstName(),
		LastName:      f.LastName(),
		Age:           f.Number(0, 99),
		Email:         f.Email(),
		Gender:        f.RandomString(genders),
		MaritalStatus: f.RandomString(maritalChoices),
		Hobbies:       hobbyChoices,
		Address: Address{
			Street:  f.Street(),
			City:    f.City(),
			State:   f.State(),
			Zipcode: f.Zip(),
			Country: f.Country(),
		},
		Attributes: Attributes{
			Weight: f.Number(55, 200),
			Height: f.Number(100, 300),
			Colour: f.RandomString(bodyColours),
			Hair: Hair{
				Type:      f.RandomString(hairTypes),
				Colour:    f.RandomString(hairColours),
				Length:    f.RandomString(hairLengths),
				Thickness: f.RandomString(hairThicknesses),
			},
			BodyType: f.RandomString(bodyTypes),
		},
	}

	base := Size(p)
	if base >= size {
		return p
	}
	p.Payload = Padding(f.Word(), size-base)
	return p
}
