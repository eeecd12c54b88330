package model

// SubjectPending marks a question whose subject could not be determined
const SubjectPending = 0

// Subjects is the closed subject taxonomy (pediatrics content outline)
var Subjects = map[int]string{
	SubjectPending: "Pending",
	1:              "Adolescent Medicine",
	2:              "Cardiology",
	3:              "Dermatology",
	4:              "Development",
	5:              "Emergency/Critical Care",
	6:              "Endocrinology",
	7:              "Gastroenterology",
	8:              "Genetic Disorders",
	9:              "Hematology",
	10:             "Immunizations",
	11:             "Immunology/Allergy/Rheumatology",
	12:             "Infectious Disease",
	13:             "Metabolic",
	14:             "Neurology",
	15:             "Newborn Medicine",
	16:             "Nutrition",
	17:             "Oncology",
	18:             "Ophthalmology",
	19:             "Orthopaedics",
	20:             "Nephrology/Urology",
	21:             "Poisoning/Burns/Injury Prevention",
	22:             "Pulmonology",
}

// Category codes (nbme_cat column)
const (
	CategoryDiagnosis    = 1
	CategoryManagement   = 2
	CategoryMechanism    = 3
	CategoryPrevention   = 4
	CategoryPharmacology = 5
	CategoryEthics       = 6
	CategoryUnknown      = 7 // Highest index; used when the category is missing
)

// Categories is the closed category taxonomy
var Categories = map[int]string{
	CategoryDiagnosis:    "Diagnosis",
	CategoryManagement:   "Management",
	CategoryMechanism:    "Mechanism/Pathophysiology",
	CategoryPrevention:   "Health Maintenance/Prevention",
	CategoryPharmacology: "Pharmacotherapy",
	CategoryEthics:       "Ethics/Communication",
	CategoryUnknown:      "Other",
}

// TypeRephrased is the type code for items rephrased from a source question
const TypeRephrased = 2

// ValidSubject reports whether code is a real (non-sentinel) subject
func ValidSubject(code int) bool {
	_, ok := Subjects[code]
	return ok && code != SubjectPending
}

// ValidCategory reports whether code is in the category taxonomy
func ValidCategory(code int) bool {
	_, ok := Categories[code]
	return ok
}
