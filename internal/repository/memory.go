package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"ScriptStats/internal/model"

	"gorm.io/gorm"
)

// MemoryStore 进程内存储，实现全部仓储接口。用于无数据库的本地试用与测试，重启即丢失。
type MemoryStore struct {
	mu sync.RWMutex

	scripts      []*model.Script
	uploads      []*model.ExcelUpload
	tasks        map[string]*model.UploadTask
	rows         []*model.SpendRow
	scriptStats  map[string]*model.ScriptStat
	channelStats map[string]map[string]*model.ScriptChannelStat
	periodStats  []*model.ChannelPeriodStat
	configs      map[string][]string

	nextRowID uint64
}

var (
	_ ScriptRepository = (*MemoryStore)(nil)
	_ UploadRepository = (*MemoryStore)(nil)
	_ StatRepository   = (*MemoryStore)(nil)
	_ ConfigRepository = (*MemoryStore)(nil)
)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tasks:        make(map[string]*model.UploadTask),
		scriptStats:  make(map[string]*model.ScriptStat),
		channelStats: make(map[string]map[string]*model.ScriptChannelStat),
		configs:      make(map[string][]string),
	}
}

// ===== scripts =====

func (s *MemoryStore) ListScripts(_ context.Context) ([]*model.Script, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Script, 0, len(s.scripts))
	for _, sc := range s.scripts {
		c := *sc
		out = append(out, &c)
	}
	return out, nil
}

func (s *MemoryStore) ListScriptsWithStat(ctx context.Context) ([]*model.Script, error) {
	list, _ := s.ListScripts(ctx)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sc := range list {
		if st, ok := s.scriptStats[sc.ID]; ok {
			c := *st
			sc.Stat = &c
		}
	}
	return list, nil
}

func (s *MemoryStore) GetScriptByID(_ context.Context, id string) (*model.Script, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sc := range s.scripts {
		if sc.ID == id {
			c := *sc
			if st, ok := s.scriptStats[id]; ok {
				cs := *st
				c.Stat = &cs
			}
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *MemoryStore) GetScriptByName(_ context.Context, name string) (*model.Script, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sc := range s.scripts {
		if sc.Name == name {
			c := *sc
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *MemoryStore) ListExistingNames(_ context.Context, names []string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		want[n] = struct{}{}
	}
	existing := []string{}
	for _, sc := range s.scripts {
		if _, ok := want[sc.Name]; ok {
			existing = append(existing, sc.Name)
		}
	}
	return existing, nil
}

func (s *MemoryStore) CreateScript(_ context.Context, sc *model.Script) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.scripts {
		if existing.Name == sc.Name || existing.ID == sc.ID {
			return gorm.ErrDuplicatedKey
		}
	}
	now := time.Now()
	if sc.CreatedAt.IsZero() {
		sc.CreatedAt = now
	}
	sc.UpdatedAt = now
	c := *sc
	c.Stat = nil
	s.scripts = append(s.scripts, &c)
	return nil
}

func (s *MemoryStore) SaveScript(_ context.Context, sc *model.Script) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.scripts {
		if existing.ID != sc.ID && existing.Name == sc.Name {
			return gorm.ErrDuplicatedKey
		}
	}
	for _, existing := range s.scripts {
		if existing.ID == sc.ID {
			existing.Name = sc.Name
			existing.ParentID = sc.ParentID
			existing.FrontContent = sc.FrontContent
			existing.MidContent = sc.MidContent
			existing.EndContent = sc.EndContent
			existing.UpdatedAt = time.Now()
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (s *MemoryStore) DeleteScripts(_ context.Context, ids []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	var deleted int64
	kept := s.scripts[:0]
	for _, sc := range s.scripts {
		if _, ok := drop[sc.ID]; ok {
			deleted++
			delete(s.scriptStats, sc.ID)
			delete(s.channelStats, sc.ID)
			continue
		}
		kept = append(kept, sc)
	}
	s.scripts = kept
	for _, sc := range s.scripts {
		if sc.ParentID == nil {
			continue
		}
		if _, ok := drop[*sc.ParentID]; ok {
			sc.ParentID = nil
		}
	}
	return deleted, nil
}

func (s *MemoryStore) CountScripts(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.scripts)), nil
}

// ===== uploads =====

func (s *MemoryStore) CreateUpload(_ context.Context, upload *model.ExcelUpload, task *model.UploadTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if upload.CreatedAt.IsZero() {
		upload.CreatedAt = time.Now()
	}
	task.UploadID = upload.ID
	u := *upload
	t := *task
	s.uploads = append(s.uploads, &u)
	s.tasks[t.ID] = &t
	return nil
}

func (s *MemoryStore) GetUpload(_ context.Context, id string) (*model.ExcelUpload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.uploads {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *MemoryStore) ListUploads(_ context.Context) ([]*model.ExcelUpload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.ExcelUpload, 0, len(s.uploads))
	for _, u := range s.uploads {
		c := *u
		out = append(out, &c)
	}
	return out, nil
}

func (s *MemoryStore) DeleteUpload(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i, u := range s.uploads {
		if u.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return gorm.ErrRecordNotFound
	}
	s.uploads = append(s.uploads[:idx], s.uploads[idx+1:]...)

	rows := s.rows[:0]
	for _, r := range s.rows {
		if r.UploadID != id {
			rows = append(rows, r)
		}
	}
	s.rows = rows

	for tid, t := range s.tasks {
		if t.UploadID == id {
			delete(s.tasks, tid)
		}
	}

	stats := s.periodStats[:0]
	for _, st := range s.periodStats {
		if st.UploadID != id {
			stats = append(stats, st)
		}
	}
	s.periodStats = stats
	return nil
}

func (s *MemoryStore) SetUploadRowCount(_ context.Context, id string, rowCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.uploads {
		if u.ID == id {
			u.RowCount = rowCount
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (s *MemoryStore) GetTask(_ context.Context, id string) (*model.UploadTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *t
	return &c, nil
}

func (s *MemoryStore) UpdateTask(_ context.Context, id string, update TaskUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil
	}
	t.Status = update.Status
	t.Progress = update.Progress
	t.Total = update.Total
	t.Message = update.Message
	t.Error = update.Error
	t.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) InsertRows(_ context.Context, rows []*model.SpendRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		s.nextRowID++
		r.ID = s.nextRowID
		c := *r
		s.rows = append(s.rows, &c)
	}
	return nil
}

func (s *MemoryStore) ListRows(_ context.Context) ([]*model.SpendRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.SpendRow, 0, len(s.rows))
	for _, r := range s.rows {
		c := *r
		out = append(out, &c)
	}
	return out, nil
}

func (s *MemoryStore) ListRowsByUpload(_ context.Context, uploadID string) ([]*model.SpendRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*model.SpendRow{}
	for _, r := range s.rows {
		if r.UploadID == uploadID {
			c := *r
			out = append(out, &c)
		}
	}
	return out, nil
}

// ===== stats =====

func (s *MemoryStore) UpsertScriptStat(_ context.Context, stat *model.ScriptStat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *stat
	s.scriptStats[stat.ScriptID] = &c
	return nil
}

func (s *MemoryStore) UpsertScriptChannelStat(_ context.Context, stat *model.ScriptChannelStat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byChannel, ok := s.channelStats[stat.ScriptID]
	if !ok {
		byChannel = make(map[string]*model.ScriptChannelStat)
		s.channelStats[stat.ScriptID] = byChannel
	}
	c := *stat
	byChannel[stat.Channel] = &c
	return nil
}

func (s *MemoryStore) DeleteScriptStats(_ context.Context, scriptID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.scriptStats, scriptID)
	delete(s.channelStats, scriptID)
	return nil
}

func (s *MemoryStore) PruneScriptChannelStats(_ context.Context, scriptID string, keep []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	keepSet := make(map[string]struct{}, len(keep))
	for _, ch := range keep {
		keepSet[ch] = struct{}{}
	}
	for ch := range s.channelStats[scriptID] {
		if _, ok := keepSet[ch]; !ok {
			delete(s.channelStats[scriptID], ch)
		}
	}
	return nil
}

func (s *MemoryStore) PruneOrphanScriptStats(_ context.Context, liveIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	live := make(map[string]struct{}, len(liveIDs))
	for _, id := range liveIDs {
		live[id] = struct{}{}
	}
	for id := range s.scriptStats {
		if _, ok := live[id]; !ok {
			delete(s.scriptStats, id)
		}
	}
	for id := range s.channelStats {
		if _, ok := live[id]; !ok {
			delete(s.channelStats, id)
		}
	}
	return nil
}

func (s *MemoryStore) ReplaceChannelPeriodStats(_ context.Context, stats []*model.ChannelPeriodStat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.periodStats = make([]*model.ChannelPeriodStat, 0, len(stats))
	for _, st := range stats {
		c := *st
		s.periodStats = append(s.periodStats, &c)
	}
	return nil
}

func (s *MemoryStore) ListScriptStats(_ context.Context) ([]*model.ScriptStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.ScriptStat, 0, len(s.scriptStats))
	for _, st := range s.scriptStats {
		c := *st
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScriptID < out[j].ScriptID })
	return out, nil
}

func (s *MemoryStore) ListScriptChannelStats(_ context.Context, scriptID string) ([]*model.ScriptChannelStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.ScriptChannelStat, 0, len(s.channelStats[scriptID]))
	for _, st := range s.channelStats[scriptID] {
		c := *st
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalCost != out[j].TotalCost {
			return out[i].TotalCost > out[j].TotalCost
		}
		return out[i].Channel < out[j].Channel
	})
	return out, nil
}

func (s *MemoryStore) ListChannelPeriodStats(_ context.Context) ([]*model.ChannelPeriodStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.ChannelPeriodStat, 0, len(s.periodStats))
	for _, st := range s.periodStats {
		c := *st
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Period != out[j].Period {
			return out[i].Period < out[j].Period
		}
		return out[i].TotalCost > out[j].TotalCost
	})
	return out, nil
}

func (s *MemoryStore) CountScriptStats(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.scriptStats)), nil
}

func (s *MemoryStore) CountStatChannels(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, byChannel := range s.channelStats {
		for ch := range byChannel {
			seen[ch] = struct{}{}
		}
	}
	return int64(len(seen)), nil
}

// ===== configs =====

func (s *MemoryStore) GetStringList(_ context.Context, key string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.configs[key]...), nil
}

func (s *MemoryStore) PutStringList(_ context.Context, key string, values []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[key] = append([]string{}, values...)
	return nil
}
