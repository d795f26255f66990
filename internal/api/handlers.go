package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"stagelights/internal/artnet"
	"stagelights/internal/dmx"
	"stagelights/internal/engine"
	"stagelights/internal/fixture"
	"stagelights/internal/rig"
)

var errBadRequest = errors.New("bad request")

// FixtureView is the JSON form of a fixture.
type FixtureView struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Start       int               `json:"start"`
	Channels    []fixture.Channel `json:"channels"`
	Color       string            `json:"color"`
	Alpha       float64           `json:"alpha"`
	Brightness  float64           `json:"brightness"`
	Temperature int               `json:"temperature"`
	Warm        int               `json:"warm"`
	Cold        int               `json:"cold"`
	Attenuation float64           `json:"attenuation"`
	Position    [3]float64        `json:"position"`
}

func viewOf(f *fixture.Fixture) FixtureView {
	return FixtureView{
		ID:          f.ID,
		Name:        f.Name,
		Start:       f.Start,
		Channels:    append([]fixture.Channel(nil), f.Channels...),
		Color:       f.Color().Hex(),
		Alpha:       f.Alpha(),
		Brightness:  f.Brightness(),
		Temperature: f.Temperature(),
		Warm:        f.Range.Warm,
		Cold:        f.Range.Cold,
		Attenuation: f.Attenuation,
		Position:    f.Position,
	}
}

func (s *Server) fixtureView(name string) (FixtureView, error) {
	var view FixtureView
	err := s.rig.Apply(name, func(f *fixture.Fixture) { view = viewOf(f) })
	return view, err
}

// UniverseView is the JSON form of a universe frame.
type UniverseView struct {
	Universe int    `json:"universe"`
	Frame    uint64 `json:"frame"`
	Active   int    `json:"active"`
	Values   []int  `json:"values"`
}

func universeView(universe int, frame uint64, u *dmx.Universe) UniverseView {
	return UniverseView{
		Universe: universe,
		Frame:    frame,
		Active:   u.CountActive(),
		Values:   u.Ints(),
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	report := s.engine.LastReport()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"version":  s.opts.Version,
		"uptime":   time.Since(s.started).Round(time.Second).String(),
		"state":    s.rig.State().String(),
		"fixtures": s.rig.Len(),
		"frame":    report.Frame,
		"fades":    s.engine.ActiveFades(),
	})
}

func (s *Server) handleFixtures(w http.ResponseWriter, _ *http.Request) {
	views := make([]FixtureView, 0, s.rig.Len())
	s.rig.Each(func(_ rig.Handle, f *fixture.Fixture) {
		views = append(views, viewOf(f))
	})
	s.writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleFixture(w http.ResponseWriter, r *http.Request) {
	view, err := s.fixtureView(chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handlePatchFixture(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var cmd engine.Command
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cmd); err != nil {
		s.writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	if err := s.engine.Apply(name, cmd); err != nil {
		s.writeError(w, err)
		return
	}

	view, err := s.fixtureView(name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleUniverse(w http.ResponseWriter, _ *http.Request) {
	frame := s.rig.Snapshot()
	s.writeJSON(w, http.StatusOK, universeView(s.engine.Universe(), s.engine.LastReport().Frame, &frame))
}

func (s *Server) handleLights(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.lights.Build(s.rig))
}

func (s *Server) handleNodes(w http.ResponseWriter, _ *http.Request) {
	nodes := []artnet.Node{}
	if s.opts.Nodes != nil {
		nodes = append(nodes, s.opts.Nodes()...)
	}
	s.writeJSON(w, http.StatusOK, nodes)
}
