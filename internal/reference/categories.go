package reference

// Category is one of the fixed project categories projects register under.
type Category struct {
	Name        string
	Description string
}

var Categories = []Category{
	{Name: "Mathematical Science", Description: "Algebra, Analysis, Applied Mathematics, Geometry, Probability & Statistics and related topics."},
	{Name: "Physics", Description: "Astronomy, Atoms, Molecules, Solids, Instrumentation & Electronics, Magnetism & Electromagnetism, Particle Physics, Optics, Lasers and Theoretical Physics."},
	{Name: "Computer Science", Description: "Algorithms, Databases, Artificial Intelligence, Networking & Communications, Computational Science, Graphics, Computer Systems, Operating Systems, Programming and Software Engineering."},
	{Name: "Chemistry", Description: "Analytical, General, Inorganic, Organic and Physical Chemistry."},
	{Name: "Biology and Biotechnology", Description: "Cellular Biology, Molecular Genetics, Immunology, Antibiotics, Antimicrobials, Bacteriology, Virology, Medicine & Health Sciences and Photosynthesis."},
	{Name: "Energy and Transportation", Description: "Aerospace, Alternative Fuels, Fossil Fuel Energy, Renewable Energy, Space, Air & Marine, Solar and Energy Conservation."},
	{Name: "Environmental Science and Management", Description: "Bioremediation, Ecosystems Management, Environmental Engineering, Land Resource Management, Recycling, Waste Management, Pollution, Blue Economy and Soil Conservation."},
	{Name: "Agriculture", Description: "Agronomy, Plant Science & Systematics, Plant Evolution, Animal Sciences and Ecology."},
	{Name: "Food Technology, Textiles & Home Economics", Description: "Food Product Development, Process Design, Food Engineering, Food Microbiology, Food Packaging & Preservation, Food Safety, Diet, Textile Design and Interior Design."},
	{Name: "Engineering", Description: "Design, Building, Engine & Machine Use, Structures, Apparatus, Manufacturing Processes, Aeronautical Engineering and Vehicle Development."},
	{Name: "Technology and Applied Technology", Description: "Appropriate Technology, Innovations in Science & Industry, Knowledge Economy and Research & Development."},
	{Name: "Behavioral Science", Description: "Psychology, Animal Conservation, Behavior Change and Disaster & Stress Response Management."},
	{Name: "Robotics", Description: "Conception, engineering, design, manufacture and operation of robots, including automation and AI integration."},
}

// CategoryNames lists the category names in registration order.
func CategoryNames() []string {
	names := make([]string, 0, len(Categories))
	for _, category := range Categories {
		names = append(names, category.Name)
	}
	return names
}

// ValidCategory reports whether the named category exists.
func ValidCategory(name string) bool {
	for _, category := range Categories {
		if category.Name == name {
			return true
		}
	}
	return false
}
