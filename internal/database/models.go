package database

// TimeLayout is the format of Metadata.Created, Modified and Added.
const TimeLayout = "2006-01-02 15:04:05"

// TaskStatus values stored in task.status.
const (
	TaskPending = 0
	TaskFailed  = 2
)

// Metadata is one catalog row per unique file content.
type Metadata struct {
	ID        int64  `json:"id,string"`
	FullPath  string `json:"fullPath"`
	Dir       string `json:"dir"`
	Name      string `json:"name"`
	Ext       string `json:"ext"`
	Size      int64  `json:"size"`
	Created   string `json:"created"`
	Modified  string `json:"modified"`
	Added     string `json:"added"`
	SHA1      string `json:"sha1"`
	Tags      string `json:"tags"`
	Notes     string `json:"notes"`
	Score     int    `json:"score"`
	IsDeleted bool   `json:"isDeleted"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Colors    string `json:"colors,omitempty"`
	Shape     string `json:"shape,omitempty"`
	Duration  int64  `json:"duration,omitempty"`
	EXIF      string `json:"exif,omitempty"`
}

// Task is a queued scan of one file.
type Task struct {
	ID        int64  `json:"id,string"`
	Path      string `json:"path"`
	Ext       string `json:"ext"`
	Status    int    `json:"status"`
	Attempts  int    `json:"attempts"`
	LastError string `json:"lastError,omitempty"`
}

// Folder mirrors one directory. PID 0 means root or not yet resolved.
type Folder struct {
	ID   int64  `json:"id,string"`
	PID  int64  `json:"pid,string"`
	Name string `json:"name"`
	Path string `json:"path"`
}

// Basket is a named collection of root directories.
type Basket struct {
	ID    int64    `json:"id,string"`
	Name  string   `json:"name"`
	Roots []string `json:"roots,omitempty"`
}

// ItemFilter narrows ListItems. Zero values mean no restriction.
type ItemFilter struct {
	Dir            string   `json:"dir,omitempty"`
	Recursive      bool     `json:"recursive,omitempty"`
	Exts           []string `json:"exts,omitempty"`
	BasketID       int64    `json:"basketId,string,omitempty"`
	IncludeDeleted bool     `json:"includeDeleted,omitempty"`
	Limit          int      `json:"limit,omitempty"`
	Offset         int      `json:"offset,omitempty"`
}

// Setting is a key/value preference.
type Setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
