package labcart

// LabTest is an individually bookable test.
type LabTest struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// HealthPackage bundles several services at one price.
type HealthPackage struct {
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	Features []string `json:"features"`
}

type Catalog struct {
	LabTests       []LabTest       `json:"lab_tests"`
	HealthPackages []HealthPackage `json:"health_packages"`
}

var labTests = []LabTest{
	{Name: "CBC (Complete Blood Count)", Price: 300},
	{Name: "Thyroid Profile", Price: 500},
	{Name: "Vitamin D Test", Price: 1000},
	{Name: "Liver Function Test", Price: 400},
}

var healthPackages = []HealthPackage{
	{Name: "Full Body Checkup", Price: 2999, Features: []string{"Blood Test", "X-Ray", "ECG", "Consultation"}},
	{Name: "Heart Health", Price: 4999, Features: []string{"Lipid Profile", "ECG", "Echo", "Cardiologist Consult"}},
	{Name: "Diabetes Care", Price: 1999, Features: []string{"HbA1c", "Sugar Fasting", "Diet Plan", "Diabetologist Consult"}},
}

// DefaultCatalog returns a copy of the fixed test and package listing.
func DefaultCatalog() Catalog {
	c := Catalog{
		LabTests:       append([]LabTest(nil), labTests...),
		HealthPackages: make([]HealthPackage, len(healthPackages)),
	}
	for i, p := range healthPackages {
		p.Features = append([]string(nil), p.Features...)
		c.HealthPackages[i] = p
	}
	return c
}
