package profile

import "strings"

// diagnosisEntry pairs a canonical condition label with the free-text
// keywords that imply it.
type diagnosisEntry struct {
	label    string
	keywords []string
}

// diagnosisKeywords maps free-text diagnoses onto canonical condition labels
// used to narrow registry queries. Order matters: the first entry whose
// keyword set matches wins, so specific cancers precede the generic "cancer"
// entry.
var diagnosisKeywords = []diagnosisEntry{
	// Cancer types
	{"breast cancer", []string{"breast cancer", "breast neoplasm", "mammary carcinoma", "ductal carcinoma", "lobular carcinoma"}},
	{"lung cancer", []string{"lung cancer", "lung neoplasm", "pulmonary carcinoma", "non-small cell lung cancer", "nsclc", "small cell lung cancer", "sclc"}},
	{"prostate cancer", []string{"prostate cancer", "prostate neoplasm", "prostatic carcinoma", "adenocarcinoma of prostate"}},
	{"colorectal cancer", []string{"colorectal cancer", "colon cancer", "rectal cancer", "bowel cancer", "intestinal cancer"}},
	{"pancreatic cancer", []string{"pancreatic cancer", "pancreatic neoplasm", "pancreatic adenocarcinoma"}},
	{"ovarian cancer", []string{"ovarian cancer", "ovarian neoplasm", "ovarian carcinoma"}},
	{"melanoma", []string{"melanoma", "malignant melanoma", "skin cancer", "cutaneous melanoma"}},
	{"leukemia", []string{"leukemia", "leukaemia", "blood cancer", "acute lymphoblastic leukemia", "chronic lymphocytic leukemia"}},
	{"lymphoma", []string{"lymphoma", "hodgkin lymphoma", "non-hodgkin lymphoma", "burkitt lymphoma"}},
	{"brain cancer", []string{"brain cancer", "brain tumor", "glioblastoma", "meningioma", "astrocytoma"}},
	{"liver cancer", []string{"liver cancer", "hepatocellular carcinoma", "hepatoma", "liver neoplasm"}},
	{"kidney cancer", []string{"kidney cancer", "renal cancer", "renal cell carcinoma", "nephroma"}},
	{"bladder cancer", []string{"bladder cancer", "bladder neoplasm", "urothelial carcinoma"}},
	{"cervical cancer", []string{"cervical cancer", "cervical neoplasm", "cervical carcinoma"}},
	{"endometrial cancer", []string{"endometrial cancer", "uterine cancer", "endometrial carcinoma"}},
	{"thyroid cancer", []string{"thyroid cancer", "thyroid neoplasm", "papillary thyroid carcinoma"}},
	{"cancer", []string{"cancer", "carcinoma", "neoplasm", "tumor", "malignancy", "oncology"}},

	// Cardiovascular
	{"hypertension", []string{"hypertension", "high blood pressure", "elevated blood pressure", "arterial hypertension"}},
	{"heart disease", []string{"heart disease", "cardiac disease", "cardiovascular disease", "coronary artery disease", "cad"}},
	{"heart failure", []string{"heart failure", "congestive heart failure", "chf", "cardiac failure"}},
	{"arrhythmia", []string{"arrhythmia", "irregular heartbeat", "atrial fibrillation", "afib", "ventricular tachycardia"}},
	{"myocardial infarction", []string{"myocardial infarction", "heart attack", "mi", "acute coronary syndrome"}},
	{"stroke", []string{"stroke", "cerebrovascular accident", "cva", "brain attack", "ischemic stroke", "hemorrhagic stroke"}},
	{"peripheral artery disease", []string{"peripheral artery disease", "pad", "peripheral vascular disease", "pvd"}},

	// Respiratory
	{"copd", []string{"copd", "chronic obstructive pulmonary disease", "obstructive pulmonary", "emphysema", "chronic bronchitis"}},
	{"asthma", []string{"asthma", "bronchial asthma", "allergic asthma", "exercise-induced asthma"}},
	{"pneumonia", []string{"pneumonia", "lung infection", "bacterial pneumonia", "viral pneumonia"}},
	{"pulmonary fibrosis", []string{"pulmonary fibrosis", "lung fibrosis", "idiopathic pulmonary fibrosis", "ipf"}},
	{"sleep apnea", []string{"sleep apnea", "obstructive sleep apnea", "osa", "sleep disorder"}},

	// Endocrine/Metabolic
	{"diabetes", []string{"diabetes", "diabetes mellitus", "diabetic", "type 1 diabetes", "type 2 diabetes", "glucose intolerance"}},
	{"thyroid disorder", []string{"thyroid disorder", "hypothyroidism", "hyperthyroidism", "thyroid dysfunction"}},
	{"obesity", []string{"obesity", "overweight", "morbid obesity", "weight management"}},
	{"metabolic syndrome", []string{"metabolic syndrome", "insulin resistance", "prediabetes"}},

	// Neurological
	{"alzheimer", []string{"alzheimer", "alzheimer disease", "dementia", "cognitive decline", "memory loss"}},
	{"parkinson", []string{"parkinson", "parkinson disease", "parkinsons", "movement disorder"}},
	{"multiple sclerosis", []string{"multiple sclerosis", "ms", "demyelinating disease"}},
	{"epilepsy", []string{"epilepsy", "seizure disorder", "seizures", "convulsions"}},
	{"migraine", []string{"migraine", "headache", "severe headache", "chronic headache"}},
	{"depression", []string{"depression", "major depression", "clinical depression", "depressive disorder"}},
	{"anxiety", []string{"anxiety", "anxiety disorder", "generalized anxiety", "panic disorder"}},
	{"bipolar disorder", []string{"bipolar disorder", "manic depression", "bipolar"}},
	{"schizophrenia", []string{"schizophrenia", "psychosis", "schizoaffective disorder"}},

	// Autoimmune/Inflammatory
	{"rheumatoid arthritis", []string{"rheumatoid arthritis", "ra", "inflammatory arthritis"}},
	{"lupus", []string{"lupus", "systemic lupus erythematosus", "sle", "autoimmune disease"}},
	{"crohn disease", []string{"crohn disease", "crohns disease", "inflammatory bowel disease", "ibd"}},
	{"ulcerative colitis", []string{"ulcerative colitis", "uc", "inflammatory bowel disease", "ibd"}},
	{"psoriasis", []string{"psoriasis", "psoriatic arthritis", "skin disorder"}},
	{"fibromyalgia", []string{"fibromyalgia", "chronic pain", "widespread pain"}},

	// Infectious diseases
	{"hiv", []string{"hiv", "human immunodeficiency virus", "aids", "acquired immunodeficiency syndrome"}},
	{"hepatitis", []string{"hepatitis", "hepatitis b", "hepatitis c", "liver inflammation"}},
	{"tuberculosis", []string{"tuberculosis", "tb", "mycobacterium tuberculosis"}},

	// Kidney/Urinary
	{"chronic kidney disease", []string{"chronic kidney disease", "ckd", "kidney failure", "renal disease", "end stage renal disease"}},
	{"kidney stones", []string{"kidney stones", "renal calculi", "nephrolithiasis", "urinary stones"}},

	// Gastrointestinal
	{"gastroesophageal reflux", []string{"gastroesophageal reflux", "gerd", "acid reflux", "heartburn"}},
	{"irritable bowel syndrome", []string{"irritable bowel syndrome", "ibs", "spastic colon"}},
	{"peptic ulcer", []string{"peptic ulcer", "stomach ulcer", "gastric ulcer", "duodenal ulcer"}},

	// Bone/Joint
	{"osteoporosis", []string{"osteoporosis", "bone loss", "bone density loss"}},
	{"osteoarthritis", []string{"osteoarthritis", "degenerative arthritis", "joint disease"}},

	// Blood disorders
	{"anemia", []string{"anemia", "iron deficiency", "low hemoglobin", "blood disorder"}},
	{"thrombosis", []string{"thrombosis", "blood clot", "deep vein thrombosis", "dvt", "pulmonary embolism"}},

	// Other common conditions
	{"chronic fatigue syndrome", []string{"chronic fatigue syndrome", "cfs", "myalgic encephalomyelitis"}},
	{"macular degeneration", []string{"macular degeneration", "age-related macular degeneration", "amd", "vision loss"}},
	{"glaucoma", []string{"glaucoma", "increased eye pressure", "optic nerve damage"}},
}

// SimplifyDiagnosis maps a free-text diagnosis onto the first canonical
// condition label whose keyword set has a case-insensitive substring match in
// the input. Inputs matching no entry come back unchanged.
func SimplifyDiagnosis(diagnosis string) string {
	lower := strings.ToLower(diagnosis)

	for _, entry := range diagnosisKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(lower, keyword) {
				return entry.label
			}
		}
	}
	return diagnosis
}
