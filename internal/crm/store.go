package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/pipeline-crm/pkg/enums"
	pkgerrors "github.com/angelmondragon/pipeline-crm/pkg/errors"
	"github.com/angelmondragon/pipeline-crm/pkg/logger"
	"github.com/angelmondragon/pipeline-crm/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

const (
	opCreateLead    = "create_lead"
	opUpdateLead    = "update_lead"
	opDeleteLead    = "delete_lead"
	opAddNote       = "add_note"
	opAddReminder   = "add_reminder"
	opCreateMeeting = "create_meeting"
	opChangeStage   = "change_stage"
)

// OpenParams wires a Store for one signed-in identity.
type OpenParams struct {
	UserID    string
	Persister Persister
	Logger    *logger.Logger
	Metrics   *metrics.StoreMetrics
	Now       func() time.Time
	NewID     func() string
}

// Store is the in-memory workspace of a single identity. Every mutator holds
// the lock until its snapshot saves have been attempted, records exactly one
// activity, and leaves the in-memory change applied even when saving fails.
type Store struct {
	mu        sync.Mutex
	userID    string
	leads     []Lead
	meetings  []Meeting
	recorder  *Recorder
	persister Persister
	logg      *logger.Logger
	metrics   *metrics.StoreMetrics
	now       func() time.Time
	newID     func() string
}

// Open builds the identity's store and loads its persisted collections.
// Collections that were never saved start empty.
func Open(ctx context.Context, params OpenParams) (*Store, error) {
	userID := strings.TrimSpace(params.UserID)
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if params.Persister == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "snapshot persister required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	if params.NewID == nil {
		params.NewID = uuid.NewString
	}

	s := &Store{
		userID:    userID,
		persister: params.Persister,
		logg:      params.Logger,
		metrics:   params.Metrics,
		now:       params.Now,
		newID:     params.NewID,
	}

	var (
		leads      []Lead
		meetings   []Meeting
		activities []Activity
	)
	targets := map[string]any{
		CollectionLeads:      &leads,
		CollectionMeetings:   &meetings,
		CollectionActivities: &activities,
	}
	for _, collection := range Collections {
		if err := s.load(ctx, collection, targets[collection]); err != nil {
			return nil, err
		}
	}

	s.leads = s.normalizeLeads(ctx, leads)
	s.meetings = cloneMeetings(meetings)
	s.recorder = NewRecorder(s.now, s.newID, activities)
	return s, nil
}

// UserID returns the identity owning this store.
func (s *Store) UserID() string {
	return s.userID
}

// State returns a deep copy of all collections.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Leads:      cloneLeads(s.leads),
		Meetings:   cloneMeetings(s.meetings),
		Activities: s.recorder.Entries(),
	}
}

// GetLead returns a copy of one lead.
func (s *Store) GetLead(id string) (Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOfLead(id)
	if idx < 0 {
		return Lead{}, leadNotFound(id)
	}
	return s.leads[idx].clone(), nil
}

// CreateLead adds a lead at the front of the collection.
func (s *Store) CreateLead(ctx context.Context, in CreateLeadInput) (Lead, error) {
	in = in.normalized()
	if err := validateInput(in); err != nil {
		return Lead{}, err
	}
	stage := enums.PipelineStageNew
	if in.Stage != "" {
		parsed, err := parseStage(in.Stage)
		if err != nil {
			return Lead{}, err
		}
		stage = parsed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lead := Lead{
		ID:        s.newID(),
		Name:      in.Name,
		Company:   optional(in.Company),
		Email:     in.Email,
		Phone:     optional(in.Phone),
		Source:    optional(in.Source),
		Stage:     stage,
		CreatedAt: s.now().UTC(),
		Notes:     []Note{},
		Reminders: []Reminder{},
	}
	s.leads = append([]Lead{lead}, s.leads...)
	s.recorder.Record(enums.ActivityLeadCreated, "New lead added: "+lead.Name, lead.ID)
	s.metrics.IncMutation(opCreateLead)

	return lead.clone(), s.persist(ctx, CollectionLeads, CollectionActivities)
}

// UpdateLead shallow-merges the patch into the lead. Notes and reminders are
// never touched.
func (s *Store) UpdateLead(ctx context.Context, id string, patch LeadPatch) (Lead, error) {
	patch = patch.normalized()
	if err := validateInput(patch); err != nil {
		return Lead{}, err
	}
	var stage *enums.PipelineStage
	if patch.Stage != nil {
		parsed, err := parseStage(*patch.Stage)
		if err != nil {
			return Lead{}, err
		}
		stage = &parsed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOfLead(id)
	if idx < 0 {
		return Lead{}, leadNotFound(id)
	}
	lead := &s.leads[idx]
	if patch.Name != nil {
		lead.Name = *patch.Name
	}
	if patch.Company != nil {
		lead.Company = optional(*patch.Company)
	}
	if patch.Email != nil {
		lead.Email = *patch.Email
	}
	if patch.Phone != nil {
		lead.Phone = optional(*patch.Phone)
	}
	if patch.Source != nil {
		lead.Source = optional(*patch.Source)
	}
	if stage != nil {
		lead.Stage = *stage
	}

	s.recorder.Record(enums.ActivityLeadUpdated, "Lead updated: "+lead.Name, lead.ID)
	s.metrics.IncMutation(opUpdateLead)

	return lead.clone(), s.persist(ctx, CollectionLeads, CollectionActivities)
}

// DeleteLead removes the lead with its notes and reminders. Meetings keep
// their reference and resolve as unknown from then on.
func (s *Store) DeleteLead(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOfLead(id)
	if idx < 0 {
		return leadNotFound(id)
	}
	name := s.leads[idx].Name
	s.leads = append(s.leads[:idx:idx], s.leads[idx+1:]...)

	s.recorder.Record(enums.ActivityLeadDeleted, "Lead deleted: "+name, "")
	s.metrics.IncMutation(opDeleteLead)

	return s.persist(ctx, CollectionLeads, CollectionActivities)
}

// AddNote prepends a note to the lead.
func (s *Store) AddNote(ctx context.Context, leadID, text string) (Note, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Note{}, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{"text": "is required"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOfLead(leadID)
	if idx < 0 {
		return Note{}, leadNotFound(leadID)
	}
	note := Note{
		ID:        s.newID(),
		Text:      text,
		Timestamp: s.now().UTC(),
	}
	lead := &s.leads[idx]
	lead.Notes = append([]Note{note}, lead.Notes...)

	s.recorder.Record(enums.ActivityNoteAdded, "Note added to lead", lead.ID)
	s.metrics.IncMutation(opAddNote)

	return note, s.persist(ctx, CollectionLeads, CollectionActivities)
}

// AddReminder appends an open follow-up to the lead.
func (s *Store) AddReminder(ctx context.Context, leadID string, in ReminderInput) (Reminder, error) {
	in = in.normalized()
	if err := validateInput(in); err != nil {
		return Reminder{}, err
	}
	date, err := time.ParseInLocation(reminderDateLayout, in.Date, time.UTC)
	if err != nil {
		return Reminder{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid reminder date").
			WithDetails(map[string]string{"date": "must be a date formatted " + reminderDateLayout})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOfLead(leadID)
	if idx < 0 {
		return Reminder{}, leadNotFound(leadID)
	}
	reminder := Reminder{
		ID:        s.newID(),
		Date:      date,
		Note:      in.Note,
		CreatedAt: s.now().UTC(),
	}
	lead := &s.leads[idx]
	lead.Reminders = append(lead.Reminders, reminder)

	s.recorder.Record(enums.ActivityReminderSet, "Follow-up reminder set", lead.ID)
	s.metrics.IncMutation(opAddReminder)

	return reminder, s.persist(ctx, CollectionLeads, CollectionActivities)
}

// CreateMeeting schedules a meeting against an existing lead.
func (s *Store) CreateMeeting(ctx context.Context, in MeetingInput) (Meeting, error) {
	in = in.normalized()
	if err := validateInput(in); err != nil {
		return Meeting{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOfLead(in.LeadID) < 0 {
		return Meeting{}, leadNotFound(in.LeadID)
	}
	meeting := Meeting{
		ID:        s.newID(),
		Title:     in.Title,
		LeadID:    in.LeadID,
		DateTime:  in.DateTime.UTC(),
		Notes:     optional(in.Notes),
		CreatedAt: s.now().UTC(),
	}
	s.meetings = append([]Meeting{meeting}, s.meetings...)

	s.recorder.Record(enums.ActivityMeetingScheduled, "Meeting scheduled: "+meeting.Title, meeting.LeadID)
	s.metrics.IncMutation(opCreateMeeting)

	return meeting.clone(), s.persist(ctx, CollectionMeetings, CollectionActivities)
}

// ChangeStage moves the lead to stage. Moving to the current stage changes
// nothing and reports changed=false.
func (s *Store) ChangeStage(ctx context.Context, leadID string, stage enums.PipelineStage) (Lead, bool, error) {
	info, ok := stage.Info()
	if !ok {
		return Lead{}, false, invalidStage(string(stage))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOfLead(leadID)
	if idx < 0 {
		return Lead{}, false, leadNotFound(leadID)
	}
	lead := &s.leads[idx]
	if lead.Stage == stage {
		return lead.clone(), false, nil
	}
	lead.Stage = stage

	s.recorder.Record(enums.ActivityStageChanged, fmt.Sprintf("%s moved to %s", lead.Name, info.Label), lead.ID)
	s.metrics.IncMutation(opChangeStage)

	return lead.clone(), true, s.persist(ctx, CollectionLeads, CollectionActivities)
}

func (s *Store) indexOfLead(id string) int {
	for i := range s.leads {
		if s.leads[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) load(ctx context.Context, collection string, dest any) error {
	payload, found, err := s.persister.Load(ctx, s.userID, collection)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+collection).
			WithDetails(map[string]any{"collection": collection})
	}
	if !found || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode "+collection)
	}
	return nil
}

func (s *Store) normalizeLeads(ctx context.Context, in []Lead) []Lead {
	out := cloneLeads(in)
	for i := range out {
		if out[i].Stage.IsValid() {
			continue
		}
		if s.logg != nil {
			fields := map[string]any{"user_id": s.userID, "lead_id": out[i].ID, "stage": string(out[i].Stage)}
			s.logg.Warn(s.logg.WithFields(ctx, fields), "unknown stage in snapshot reset to new")
		}
		out[i].Stage = enums.PipelineStageNew
	}
	return out
}

func (s *Store) encode(collection string) ([]byte, error) {
	switch collection {
	case CollectionLeads:
		return json.Marshal(s.leads)
	case CollectionMeetings:
		return json.Marshal(s.meetings)
	case CollectionActivities:
		return json.Marshal(s.recorder.raw())
	}
	return nil, fmt.Errorf("unknown collection %q", collection)
}

// persist saves each collection, attempting all of them even after a failure.
func (s *Store) persist(ctx context.Context, collections ...string) error {
	var (
		errs   error
		failed []string
	)
	for _, collection := range collections {
		start := time.Now()
		payload, err := s.encode(collection)
		if err == nil {
			err = s.persister.Save(ctx, s.userID, collection, payload)
		}
		s.metrics.ObserveSave(collection, time.Since(start))
		if err != nil {
			s.metrics.IncPersistFailure(collection)
			failed = append(failed, collection)
			errs = multierr.Append(errs, fmt.Errorf("save %s: %w", collection, err))
		}
	}
	if errs == nil {
		return nil
	}

	if s.logg != nil {
		fields := map[string]any{"user_id": s.userID, "collections": failed}
		s.logg.Error(s.logg.WithFields(ctx, fields), "persistence failure", errs)
	}
	return pkgerrors.Wrap(pkgerrors.CodePersistence, errs, "change applied but not saved").
		WithDetails(map[string]any{"applied": true, "collections": failed})
}

func parseStage(raw string) (enums.PipelineStage, error) {
	stage, err := enums.ParsePipelineStage(raw)
	if err != nil {
		return "", invalidStage(raw)
	}
	return stage, nil
}

func invalidStage(raw string) error {
	return pkgerrors.New(pkgerrors.CodeInvalidStage, "unknown pipeline stage").
		WithDetails(map[string]any{"stage": raw})
}

func leadNotFound(id string) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "lead not found").
		WithDetails(map[string]any{"leadId": id})
}
