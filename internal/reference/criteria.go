package reference

import "github.com/ksef-kenya/judging-api/internal/models"

// Criterion is one scored line item on a marksheet. Marks are awarded in
// increments of Step up to MaxScore.
type Criterion struct {
	ID          string
	Text        string
	Description string
	MaxScore    float64
	Step        float64
}

// Part A ("written") totals 30 marks, Part B ("oral") 15, Part C
// ("scientific/project merit") 35. Section A scores Part A; Section BC
// scores Parts B and C together for a grand total of 80.

var PartACriteria = []Criterion{
	{ID: "a1", Text: "Write up neatly and logically organized", Description: "Write with clearly labeled sections eg. Abstract, and plagiarism pledge etc", MaxScore: 2, Step: 0.5},
	{ID: "a2", Text: "Evidence of background research in write up", Description: "Background information and knowledge, summarized in write up with articles in appendix", MaxScore: 2, Step: 0.5},
	{ID: "a3", Text: "Introduction in write up", Description: "Including focus question / problem statement and supporting evidence", MaxScore: 2, Step: 0.5},
	{ID: "a4", Text: "Written language in write up and on poster", Description: "Legible, correct fonts, scientific, suitable headings, no spelling mistakes", MaxScore: 2, Step: 0.5},
	{ID: "a5", Text: "Aim / hypothesis / objectives of project reflected in write up and on poster", MaxScore: 2, Step: 0.5},
	{ID: "a6", Text: "Methods (and materials) used or technologies used in write up and on poster", Description: "Presented in logical order, correct expression, more extensive in report than on poster", MaxScore: 2, Step: 0.5},
	{ID: "a7", Text: "Variables identified in write up and on poster", Description: "Dependent and independent variable", MaxScore: 2, Step: 0.5},
	{ID: "a8", Text: "Results in write up and on posters", Description: "Full observations, presented in a tabular form and in graphs in write up. Summary in graph or diagram form on poster.", MaxScore: 2, Step: 0.5},
	{ID: "a9", Text: "Analysis of results in write up and on poster", Description: "Report/findings/graphs explained in words, more extensive in write up than on poster", MaxScore: 2, Step: 0.5},
	{ID: "a10", Text: "Discussion of results in write up and on poster", Description: "Pattern and trends are noted and explained, anomalies/unusual results are discussed, limitations noted and clarified", MaxScore: 2, Step: 0.5},
	{ID: "a11", Text: "Future possibilities of research in write up / recommendations", Description: "Future extensions and possibilities are identified", MaxScore: 2, Step: 0.5},
	{ID: "a12", Text: "Conclusions are reflected in write up and on posters", Description: "They are valid, based on findings and linked to objectives.", MaxScore: 2, Step: 0.5},
	{ID: "a13", Text: "Reference in write up", Description: "Reference of books, magazines and internet addresses given in the correct format", MaxScore: 2, Step: 0.5},
	{ID: "a14", Text: "Acknowledgements in write up and on poster", Description: "It is important to find out depth of audit assistance received and how this assistance has been used", MaxScore: 2, Step: 0.5},
	{ID: "a15", Text: "Display board summarises project and is neatly organized", Description: "This must include correct size of the board and logical flow of presentation", MaxScore: 2, Step: 0.5},
}

var PartBCriteria = []Criterion{
	{ID: "b1", Text: "Capture of interest", Description: "The learners presentation is exciting and stimulating", MaxScore: 1, Step: 0.5},
	{ID: "b2", Text: "Enthusiasm / effort", Description: "A worthwhile effort was made to explain, lots of enthusiasm", MaxScore: 1, Step: 0.5},
	{ID: "b3", Text: "Voice / tone", Description: "Totally audible, varying intonation", MaxScore: 1, Step: 0.5},
	{ID: "b4", Text: "Self-confidence", Description: "Ease of presentation", MaxScore: 1, Step: 0.5},
	{ID: "b5", Text: "Scientific Language", Description: "Use of appropriate language and vocabulary", MaxScore: 1, Step: 0.5},
	{ID: "b6", Text: "Response to questions", Description: "Carefully listens to questions, responds clearly and intelligently", MaxScore: 2, Step: 0.5},
	{ID: "b7", Text: "Presentation of project", Description: "Can present the project in a logical, well organized way (without reciting/reading directly)", MaxScore: 2, Step: 0.5},
	{ID: "b8", Text: "Limitations / weaknesses and gaps", Description: "The learner is fully aware of limitations and can explain reasons for gaps", MaxScore: 2, Step: 0.5},
	{ID: "b9", Text: "Possible suggestions or expanding project / recommendation", Description: "The learner is fully aware of possibilities for expanding the project", MaxScore: 2, Step: 0.5},
	{ID: "b10", Text: "Authenticity", Description: "The learner takes complete ownership of the project and integrates assistance received in their answers to questions.", MaxScore: 2, Step: 0.5},
}

var PartCCriteria = []Criterion{
	{ID: "c1", Text: "Statement of the problem", Description: "Clear statement of the problem and objectives", MaxScore: 2, Step: 0.5},
	{ID: "c2", Text: "Introduction / Background information", Description: "Relationship between the project and other research done in the same area", MaxScore: 2, Step: 0.5},
	{ID: "c3", Text: "Application of scientific concepts to every day life", MaxScore: 3, Step: 1},
	{ID: "c4", Text: "Subject mastery", Description: "Demonstration of deep and accurate knowledge of scientific and engineering principles involved", MaxScore: 3, Step: 1},
	{ID: "c5", Text: "Literature review", Description: "Project shows understanding of existing knowledge (citations).", MaxScore: 2, Step: 0.5},
	{ID: "c6", Text: "Data", Description: "Adequate data obtained to verify conclusions.", MaxScore: 3, Step: 1},
	{ID: "c7", Text: "Variables", Description: "Variables/parameters were clearly defined and recognized, controls used", MaxScore: 2, Step: 0.5},
	{ID: "c8", Text: "Statement of originality", Description: "What inspired the person to come up with the project", MaxScore: 2, Step: 0.5},
	{ID: "c9a", Text: "Logical Sequence: Apparatus / requirements", MaxScore: 2, Step: 0.5},
	{ID: "c9b", Text: "Logical Sequence: Procedure / Method", MaxScore: 2, Step: 0.5},
	{ID: "c9c", Text: "Logical Sequence: Correct illustrations", MaxScore: 3, Step: 1},
	{ID: "c10", Text: "Linkage to emerging issues", Description: "Linking of the innovation with emerging issues or adds value to existing body of knowledge", MaxScore: 2, Step: 0.5},
	{ID: "c11", Text: "Originality", Description: "Is the problem original or does the approach to the problem show originality", MaxScore: 3, Step: 1},
	{ID: "c12", Text: "Creativity", Description: "Have materials/equipment been used in an ingenious way", MaxScore: 2, Step: 0.5},
	{ID: "c13", Text: "Skill", Description: "Workmanship is neat, well done. Project requires minimum maintenance", MaxScore: 2, Step: 0.5},
}

// SectionCriteria returns the criteria a judge scores for the given section:
// Part A alone for Section A, Parts B and C combined for Section BC.
func SectionCriteria(section models.Section) []Criterion {
	switch section {
	case models.SectionA:
		return PartACriteria
	case models.SectionBC:
		combined := make([]Criterion, 0, len(PartBCriteria)+len(PartCCriteria))
		combined = append(combined, PartBCriteria...)
		combined = append(combined, PartCCriteria...)
		return combined
	default:
		return nil
	}
}

// MaxTotal sums the maximum marks of the given criteria.
func MaxTotal(criteria []Criterion) float64 {
	var total float64
	for _, criterion := range criteria {
		total += criterion.MaxScore
	}
	return total
}

// FindCriterion looks up a criterion by ID within a list.
func FindCriterion(criteria []Criterion, id string) (Criterion, bool) {
	for _, criterion := range criteria {
		if criterion.ID == id {
			return criterion, true
		}
	}
	return Criterion{}, false
}
