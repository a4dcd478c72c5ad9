package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/store"
)

var ledgerPaths = map[model.Kind]string{
	model.KindIssue:       "/issue",
	model.KindReturn:      "/return",
	model.KindStoreIssue:  "/store/issue",
	model.KindStoreReturn: "/store/return",
}

var ledgerTitles = map[model.Kind]string{
	model.KindIssue:       "Issue equipment",
	model.KindReturn:      "Return equipment",
	model.KindStoreIssue:  "Issue from store",
	model.KindStoreReturn: "Return to store",
}

type ledgerPageData struct {
	PageData
	Kind              model.Kind
	Action            string
	Marathons         []model.Marathon
	Stations          []model.Station
	Equipment         []model.Equipment
	Persons           []string
	MarathonID        int64
	StationID         int64
	CanCreateMarathon bool
	Outstanding       []model.StationDetail
	StoreOutstanding  []model.StoreOutstanding
}

// LedgerPage returns the GET handler of the form for one ledger kind. The
// return pages also list what is still outstanding for the chosen marathon.
func (s *Server) LedgerPage(kind model.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if kind.IsStore() && !requireRole(w, r, model.RoleStorekeeper) {
			return
		}
		ctx := r.Context()
		actor := webActor(r)

		data := ledgerPageData{
			PageData:          s.page(r, ledgerTitles[kind]),
			Kind:              kind,
			Action:            ledgerPaths[kind],
			MarathonID:        formID(r.URL.Query().Get("marathon")),
			StationID:         formID(r.URL.Query().Get("station")),
			CanCreateMarathon: actor.SeesAllMarathons(),
		}

		if data.MarathonID > 0 && !s.marathonAccess(w, r, data.MarathonID) {
			return
		}

		var err error
		if data.Marathons, err = store.ListMarathonsForActor(ctx, s.DB, actor); err != nil {
			slog.Error("failed to list marathons", "error", err)
		}
		if data.Stations, err = store.ListStations(ctx, s.DB); err != nil {
			slog.Error("failed to list stations", "error", err)
		}
		if data.Equipment, err = store.ListEquipment(ctx, s.DB); err != nil {
			slog.Error("failed to list equipment", "error", err)
		}
		if data.Persons, err = store.ListPersonNames(ctx, s.DB); err != nil {
			slog.Error("failed to list persons", "error", err)
		}

		if data.MarathonID > 0 {
			switch kind {
			case model.KindReturn:
				outstanding, err := store.ListOutstanding(ctx, s.DB, data.MarathonID, data.StationID)
				if err != nil {
					slog.Error("failed to list outstanding equipment", "error", err)
				}
				data.Outstanding = model.GroupByStation(outstanding)
			case model.KindStoreReturn:
				if data.StoreOutstanding, err = store.ListStoreOutstanding(ctx, s.DB, data.MarathonID); err != nil {
					slog.Error("failed to list store outstanding", "error", err)
				}
			}
		}

		s.Templates.Render(w, "ledger.html", &data)
	}
}

// LedgerSubmit returns the POST handler for one ledger kind. The grid rows
// arrive as the parallel lists equipment[], new_equipment[] and quantity[].
func (s *Server) LedgerSubmit(kind model.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if kind.IsStore() && !requireRole(w, r, model.RoleStorekeeper) {
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		actor := webActor(r)
		lines, dropped := model.ParseGrid(r.PostForm["equipment"], r.PostForm["new_equipment"], r.PostForm["quantity"])

		sub := model.LedgerSubmission{
			Kind:     kind,
			Marathon: model.Ref{ID: formID(r.PostForm.Get("marathon")), Name: r.PostForm.Get("new_marathon")},
			Station:  model.Ref{ID: formID(r.PostForm.Get("station")), Name: r.PostForm.Get("new_station")},
			Person:   r.PostForm.Get("person"),
			Lines:    lines,
		}
		back := ledgerPaths[kind]

		result, err := store.AppendLedger(r.Context(), s.DB, actor, sub)
		switch {
		case errors.Is(err, store.ErrForbidden):
			slog.Warn("ledger submission rejected", "user", actor.Username, "kind", kind, "error", err)
			redirectError(w, r, back, "You may not record equipment for this marathon.")
			return
		case errors.Is(err, store.ErrNotFound):
			redirectError(w, r, back, "The selected marathon or station no longer exists.")
			return
		case err != nil:
			slog.Error("failed to record submission", "kind", kind, "error", err)
			redirectError(w, r, back, "Saving failed.")
			return
		}

		skipped := dropped + result.Skipped
		slog.Info("ledger submission recorded",
			"user", actor.Username,
			"kind", kind,
			"records", len(result.Records),
			"skipped", skipped,
		)

		q := url.Values{}
		if len(result.Records) > 0 {
			if id := result.Records[0].MarathonID; id != nil {
				q.Set("marathon", strconv.FormatInt(*id, 10))
			}
			if id := result.Records[0].StationID; id != nil {
				q.Set("station", strconv.FormatInt(*id, 10))
			}
		}
		target := back
		if len(q) > 0 {
			target += "?" + q.Encode()
		}
		redirectNotice(w, r, target, ledgerNotice(len(result.Records), skipped))
	}
}

func ledgerNotice(recorded, skipped int) string {
	if skipped == 0 {
		return fmt.Sprintf("Recorded %d row(s).", recorded)
	}
	return fmt.Sprintf("Recorded %d row(s), skipped %d invalid row(s).", recorded, skipped)
}
