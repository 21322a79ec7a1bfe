package server

import (
	"bytes"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/TobiSchelling/ResearchConnect/internal/recommend"
	"github.com/TobiSchelling/ResearchConnect/internal/render"
	"github.com/TobiSchelling/ResearchConnect/internal/search"
	"github.com/TobiSchelling/ResearchConnect/internal/session"
)

const (
	analysisTitle    = "Your AI lab recommendations"
	needsProfileMsg  = "Run a detailed analysis first so the email can introduce you."
	noProfessorLabs  = "No labs found for this professor."
	recommendedTitle = "Recommended labs"
)

// withSession runs fn against the caller's session, issuing a cookie when
// a new session had to be created.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request, fn func(*session.State)) {
	id := ""
	if c, err := r.Cookie(session.CookieName); err == nil {
		id = c.Value
	}
	got := s.sessions.Do(id, fn)
	if got != id {
		http.SetCookie(w, &http.Cookie{
			Name:     session.CookieName,
			Value:    got,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

func writeFragment(w http.ResponseWriter, status int, html template.HTML) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(html))
}

func errorFragment(w http.ResponseWriter, status int, message string) {
	writeFragment(w, status, template.HTML(`<p class="error" role="alert">`+render.Escape(message)+`</p>`))
}

func resultsHTML(st *session.State) template.HTML {
	visible, more := st.Visible()
	return render.Results(st.Result, visible, more)
}

func slideHTML(st *session.State) template.HTML {
	rec, ok := st.Slides.Current()
	if !ok {
		return ""
	}
	return render.SlideCard(st.SlideTitle, &st.Slides, st.DetailIndex(rec))
}

func filterFromQuery(r *http.Request) search.FilterState {
	q := r.URL.Query()
	return search.FilterState{
		Term:      q.Get("search"),
		School:    q.Get("school"),
		Professor: q.Get("professor"),
	}
}

func (s *Server) handleUILabs(w http.ResponseWriter, r *http.Request) {
	f := filterFromQuery(r)
	var out template.HTML
	s.withSession(w, r, func(st *session.State) {
		st.ApplyFilter(f)
		out = resultsHTML(st)
	})
	writeFragment(w, http.StatusOK, out)
}

func (s *Server) handleUILoadMore(w http.ResponseWriter, r *http.Request) {
	var out template.HTML
	s.withSession(w, r, func(st *session.State) {
		st.LoadMore()
		out = resultsHTML(st)
	})
	writeFragment(w, http.StatusOK, out)
}

func (s *Server) handleUILab(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		index = -1
	}
	var out template.HTML
	s.withSession(w, r, func(st *session.State) {
		if lab, ok := st.Dataset.At(index); ok {
			out = render.LabDetail(lab)
		}
	})
	if out == "" {
		errorFragment(w, http.StatusNotFound, "Lab not found")
		return
	}
	writeFragment(w, http.StatusOK, out)
}

func (s *Server) handleUIProfessor(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	var out template.HTML
	s.withSession(w, r, func(st *session.State) {
		if st.ShowProfessor(name) {
			out = slideHTML(st)
		}
	})
	if out == "" {
		errorFragment(w, http.StatusNotFound, noProfessorLabs)
		return
	}
	writeFragment(w, http.StatusOK, out)
}

func (s *Server) handleUISlides(w http.ResponseWriter, r *http.Request) {
	s.slide(w, r, nil)
}

func (s *Server) handleUISlideNext(w http.ResponseWriter, r *http.Request) {
	s.slide(w, r, func(st *session.State) { st.Slides.Next() })
}

func (s *Server) handleUISlidePrev(w http.ResponseWriter, r *http.Request) {
	s.slide(w, r, func(st *session.State) { st.Slides.Prev() })
}

func (s *Server) slide(w http.ResponseWriter, r *http.Request, move func(*session.State)) {
	var out template.HTML
	s.withSession(w, r, func(st *session.State) {
		if move != nil {
			move(st)
		}
		out = slideHTML(st)
	})
	writeFragment(w, http.StatusOK, out)
}

func (s *Server) handleUIRecommend(w http.ResponseWriter, r *http.Request) {
	major := strings.TrimSpace(r.FormValue("major"))
	interests := recommend.SplitList(r.FormValue("interests"))
	if major == "" && len(interests) == 0 {
		errorFragment(w, http.StatusBadRequest, "Please enter your major or some interests.")
		return
	}

	basic := recommend.BasicRecommendations(s.dataset().All(), major, interests)
	var out template.HTML
	s.withSession(w, r, func(st *session.State) {
		out = render.RecommendationList(basic.Recommendations, st.DetailIndex)
	})
	writeFragment(w, http.StatusOK, out)
}

// handleUIAnalyze runs the detailed analysis from the profile form and
// shows the result in the slide viewer. The AI call happens outside the
// session lock.
func (s *Server) handleUIAnalyze(w http.ResponseWriter, r *http.Request) {
	if err := s.parseMultipart(w, r); err != nil {
		status, msg := errorStatus(err)
		errorFragment(w, status, msg)
		return
	}

	profile := profileFromForm(r)
	recs, err := s.analyze(r, profile)
	if err != nil {
		status, msg := errorStatus(err)
		errorFragment(w, status, msg)
		return
	}

	var out template.HTML
	s.withSession(w, r, func(st *session.State) {
		st.Profile = &profile
		st.ShowRecommendations(analysisTitle, recs)
		out = slideHTML(st)
	})
	if out == "" {
		errorFragment(w, http.StatusOK, "No recommendations were returned. Try adding more detail.")
		return
	}
	writeFragment(w, http.StatusOK, out)
}

func profileFromForm(r *http.Request) recommend.Profile {
	var p recommend.Profile
	p.Name = strings.TrimSpace(r.FormValue("name"))
	p.Academic.Major = strings.TrimSpace(r.FormValue("major"))
	p.Academic.GPA = recommend.FlexString(strings.TrimSpace(r.FormValue("gpa")))
	p.Academic.Year = recommend.FlexString(strings.TrimSpace(r.FormValue("year")))
	p.Goals.CareerGoals = recommend.SplitList(r.FormValue("career_goals"))
	p.Goals.Interests = recommend.SplitList(r.FormValue("interests"))
	return p
}

type draftView struct {
	Professor  string
	Lab        string
	Email      string
	Passed     bool
	Iterations int
	Message    string
}

func (s *Server) handleUIDraftEmail(w http.ResponseWriter, r *http.Request) {
	professor := r.FormValue("professor")
	labName := r.FormValue("lab")

	var profile *recommend.Profile
	s.withSession(w, r, func(st *session.State) {
		if st.Profile != nil {
			p := *st.Profile
			profile = &p
		}
	})
	if profile == nil {
		errorFragment(w, http.StatusBadRequest, needsProfileMsg)
		return
	}

	res, err := s.draft(r, professor, labName, *profile)
	if err != nil {
		status, msg := errorStatus(err)
		errorFragment(w, status, msg)
		return
	}

	var buf bytes.Buffer
	err = s.fragments.ExecuteTemplate(&buf, "draft", draftView{
		Professor:  professor,
		Lab:        labName,
		Email:      res.Email,
		Passed:     res.Passed,
		Iterations: res.Iterations,
		Message:    res.Review.Message,
	})
	if err != nil {
		log.Printf("Error rendering draft: %v", err)
		errorFragment(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeFragment(w, http.StatusOK, template.HTML(buf.String()))
}
