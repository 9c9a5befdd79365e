package generator

var departments = []string{
	"General Dermatology",
	"Cosmetic Dermatology",
	"Hair Transplant",
	"Laser Center",
	"Plastic Surgery",
}

var doctors = []string{
	"Kim Jinsu",
	"Park Miyoung",
	"Lee Sujeong",
	"Choi Minho",
	"Jung Younghee",
	"Kang Taehyun",
	"Yoon Soyoung",
	"Lim Junhyuk",
	"Song Jihyun",
	"Han Minwoo",
}

var symptoms = []string{
	"acne",
	"atopic dermatitis",
	"psoriasis",
	"eczema",
	"hives",
	"melasma",
	"freckles",
	"mole",
	"wart",
	"hair loss",
	"scar",
	"wrinkles",
	"hyperpigmentation",
	"enlarged pores",
	"xerosis",
}

type catalogItem struct {
	name  string
	price float64
}

// Base prices in won
var treatments = []catalogItem{
	{"IPL phototherapy", 150000},
	{"Fraxel laser", 200000},
	{"Botox injection", 100000},
	{"Filler", 300000},
	{"Skin scaling", 80000},
	{"Acne extraction", 50000},
	{"Mole removal", 30000},
	{"Wart removal", 40000},
	{"PRP therapy", 250000},
	{"Hair transplant", 2000000},
}

// Departments returns the pool reservations draw their department from
func Departments() []string { return append([]string(nil), departments...) }

// Doctors returns the pool reservations and records draw their doctor from
func Doctors() []string { return append([]string(nil), doctors...) }

// Symptoms returns the pool medical records draw their symptoms from
func Symptoms() []string { return append([]string(nil), symptoms...) }

// Returns the base price of a catalog treatment and whether it exists
func CatalogPrice(name string) (float64, bool) {
	for _, t := range treatments {
		if t.name == name {
			return t.price, true
		}
	}
	return 0, false
}
