// Package report builds the landslide risk-assessment prompt and streams the
// generated report from the text-generation API.
package report

import (
	"bytes"
	"fmt"
	"text/template"
)

// NotAvailable is rendered for fields the dashboard did not send.
const NotAvailable = "N/A"

// Input is the dashboard's report payload keyed by its field names.
type Input map[string]any

// Field returns the value for key, or NotAvailable when absent or null.
func (in Input) Field(key string) string {
	v, ok := in[key]
	if !ok || v == nil {
		return NotAvailable
	}
	return fmt.Sprint(v)
}

var promptTemplate = template.Must(template.New("report").Parse(promptText))

// BuildPrompt renders the risk-assessment prompt for in.
func BuildPrompt(in Input) (string, error) {
	var buf bytes.Buffer
	if err := promptTemplate.Execute(&buf, in); err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	return buf.String(), nil
}

const promptText = `Generate a comprehensive risk assessment report for a potential landslide.
The report should be structured, professional, and easy for a non-expert to understand.
Your analysis should consider all the environmental data provided below.
Conclude with a clear risk level (e.g., Low, Moderate, High, Critical) and a list of actionable recommendations for Local Government Units (LGUs) and residents.

---
**DISCLAIMER:**
This report is based on the available data and predictive models. Ground conditions can change rapidly. This report was produced by a generative language model. This assessment should be used as a guide for disaster preparedness and mitigation and not as a substitute for on-site engineering and geological assessments.

---
**INCIDENT AND ASSESSMENT OVERVIEW:**
- **Report Generation Date:** {{.Field "date_today"}}
- **Prediction for Date:** {{.Field "prediction_date"}}
- **Location:** {{.Field "location_name"}}
- **Coordinates:** (latitude: {{.Field "location_lat"}}) (longitude: {{.Field "location_lng"}})

---
**INITIAL PREDICTION CONTEXT:**
- **Initial Model Prediction:** {{.Field "original_model_prediction"}}
- **Initial Model Confidence:** {{.Field "original_model_confidence"}}

---
**GEOLOGICAL AND SITE CHARACTERISTICS:**

- **Geological Assessment:** [Provide a brief description of the area's geology, e.g., "The area is underlain by [rock formation], which is known for its susceptibility to weathering and erosion."]
- **Soil Type:** {{.Field "soil_type"}}
- **Slope Class:** {{.Field "slope"}} (1: below 10 degrees, 2: 10 to 20, 3: 20 to 30, 4: 30 to 40, 5: 40 to 50, 6: above 50 degrees)

---
**HYDRO-METEOROLOGICAL DATA:**

**CUMULATIVE RAINFALL:**
- **Last 3 hours:** {{.Field "rainfall-3_hr"}}
- **Last 6 hours:** {{.Field "rainfall-6_hr"}}
- **Last 12 hours:** {{.Field "rainfall-12_hr"}}
- **Last 1 day:** {{.Field "rainfall-1-day"}}
- **Last 3 days:** {{.Field "rainfall-3-day"}}
- **Last 5 days:** {{.Field "rainfall-5-day"}}

**RAINFALL INTENSITY (per hour):**
- **Average over last 3 hours:** {{.Field "rain-intensity-3_hr"}}
- **Average over last 6 hours:** {{.Field "rain-intensity-6_hr"}}
- **Average over last 12 hours:** {{.Field "rain-intensity-12_hr"}}
- **Average over last 1 day:** {{.Field "rain-intensity-1-day"}}
- **Average over last 3 days:** {{.Field "rain-intensity-3-day"}}
- **Average over last 5 days:** {{.Field "rain-intensity-5-day"}}

**SOIL MOISTURE:**
- **Current Soil Moisture (percentage):** {{.Field "soil_moisture"}}%

---
**VULNERABILITY AND RISK ASSESSMENT:**

**Analysis of Landslide Contributing Factors:**
[Synthesize the data above. For example: "The slope class of {{.Field "slope"}}, combined with the soil type ({{.Field "soil_type"}}), makes the area inherently susceptible to landslides. The rainfall over the past 3 days ({{.Field "rainfall-3-day"}}) has likely increased soil saturation and pore water pressure, further elevating the risk."]

**Agreement with Initial Prediction:**
[Comment on the initial model's prediction of {{.Field "original_model_prediction"}} with confidence {{.Field "original_model_confidence"}}, and whether the geological and meteorological factors support it.]

---
**LANDSLIDE REPORT SUMMARY:**
**Summary/Conclusion:**
[Provide a clear and concise summary of the report so far]

---

**RECOMMENDATIONS:**

**For the Local Government Unit (LGU) / Disaster Risk Reduction and Management Office (DRRMO):**
1.  **Information Dissemination:** Immediately disseminate this warning to the affected barangays and communities.
2.  **Monitoring:** Continuously monitor rainfall and be alert for signs of impending landslides (e.g., tension cracks, bulging ground, unusual sounds). Observe for rapid increases or decreases in creek/river water levels, which may be accompanied by increased turbidity.
3.  **Pre-emptive Evacuation:** For areas rated as Highly or Critically susceptible, consider and, if necessary, implement pre-emptive evacuation, especially for residents in the most dangerous areas.
4.  **Evacuation Centers:** Ensure that designated evacuation centers are ready, accessible, and equipped with necessary supplies.
5.  **Road Safety:** Monitor road conditions and advise the public of any potential road closures.

**For Residents and the Community:**
1.  **Be Vigilant:** Be aware of your surroundings and watch for any signs of land movement.
2.  **Stay Informed:** Monitor official news and advisories from PAGASA and your local DRRMO.
3.  **Evacuate if Necessary:** If you are in a high-risk area, be prepared to evacuate immediately when instructed by local authorities.
4.  **Community-Based Monitoring:** Report any unusual observations to your barangay officials.

**--- END OF REPORT ---**
`
