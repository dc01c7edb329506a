package advisory

import (
	"bytes"
	"strings"
	"text/template"
	"time"

	"github.com/aristath/forecast/internal/modules/scenario"
)

const classifySystem = "You are a financial fact checker. You judge whether financial news is genuine."

var classifyTemplate = template.Must(template.New("classify").Parse(`Judge whether the following financial news is genuine and briefly explain why.
Title: {{.Title}}
Content: {{.Content}}
Publishing platform (0 = official media, 1 = financial media, 2 = social media): {{printf "%d" .Platform}}

Respond with a JSON object:
{"verdict": "credible" or "not_credible", "confidence": number between 0 and 1, "rationale": "one or two sentences"}`))

// expiredMarker is the word the timeliness prompt asks the model to use for stale news.
const expiredMarker = "expired"

var timelinessTemplate = template.Must(template.New("timeliness").Parse(`Today is {{.Today}}.
Decide whether the following financial news still has investment reference value.
It was published on {{.Published}} and concerns the stock {{.Ticker}}.
Answer exactly "still timely" or "` + expiredMarker + `".`))

var adviceTemplate = template.Must(template.New("advice").Funcs(promptFuncs).Parse(`Based on the financial news and stock data below, write investment advice in exactly this format:
[News summary]: one sentence summarizing the news
[Price trend]: describe the rise or fall over the last week
[Recommendation]: clearly state buy, hold or sell and give the reasons

News: {{.News}}
Credibility verdict: {{.Credibility}}
Stock: {{.Ticker}}
Last close: {{printf "%.2f" .Trend.LastClose}}{{with .Trend.WeekChange}}
One-week change: {{printf "%.2f" (pct .)}}%{{end}}{{with .Trend.SMA20}}
20-day SMA: {{printf "%.2f" (num .)}}{{end}}{{with .Trend.RSI14}}
14-day RSI: {{printf "%.1f" (num .)}}{{end}}
Simulated outlook over {{.Report.HorizonDays}} trading days ({{.Report.PathCount}} paths):
- probability of closing above {{printf "%.2f" .Report.StartPrice}}: {{printf "%.1f" (pct .Report.ProbabilityAboveStart)}}%
- median terminal price: {{printf "%.2f" .Report.MedianTerminalPrice}}
- 95% value at risk: {{printf "%.2f" (pct .Report.Distribution.VaR95)}}%

Return strictly in the format above.`))

var promptFuncs = template.FuncMap{
	"num": num,
	"pct": func(v interface{}) float64 { return num(v) * 100 },
}

func num(v interface{}) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case *float64:
		if x != nil {
			return *x
		}
	}
	return 0
}

func classifyPrompt(item NewsItem) string {
	return render(classifyTemplate, item)
}

func timelinessPrompt(today, publishedAt time.Time, ticker string) string {
	return render(timelinessTemplate, struct {
		Today, Published, Ticker string
	}{
		Today:     today.Format("2006-01-02"),
		Published: publishedAt.Format("2006-01-02"),
		Ticker:    ticker,
	})
}

// AdvicePrompt builds the advice prompt from the news, its verdict and the scenario.
func AdvicePrompt(item NewsItem, cred Credibility, report scenario.ScenarioReport, trend Trend) string {
	return render(adviceTemplate, struct {
		News        string
		Credibility string
		Ticker      string
		Trend       Trend
		Report      scenario.ScenarioReport
	}{
		News:        strings.TrimSpace(item.Title + " " + item.Content),
		Credibility: cred.Label,
		Ticker:      report.Ticker,
		Trend:       trend,
		Report:      report,
	})
}

func render(t *template.Template, data interface{}) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		// templates are static; an error here is a programming bug
		panic(err)
	}
	return buf.String()
}
