// Package audit menyajikan lini masa perubahan status paket lintas
// paket, dibaca dari tabel riwayat yang append-only.
package audit

import "time"

// TimelineFilters menampung filter dasar untuk audit timeline.
type TimelineFilters struct {
	From      time.Time
	To        time.Time
	ChangedBy *int64
	ToStatus  string
	PackageID string
	Page      int
	PageSize  int
}

// TimelineRow mewakili satu baris audit timeline.
type TimelineRow struct {
	At         time.Time `json:"at"`
	PackageID  string    `json:"package_id"`
	Barcode    string    `json:"barcode"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	ChangedBy  int64     `json:"changed_by"`
	Note       string    `json:"note,omitempty"`
}

// PagingInfo menyimpan metadata pagination sederhana.
type PagingInfo struct {
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	HasNext  bool `json:"has_next"`
	PrevPage int  `json:"prev_page,omitempty"`
	NextPage int  `json:"next_page,omitempty"`
}

// Result membungkus hasil timeline dengan informasi paging.
type Result struct {
	Rows   []TimelineRow `json:"rows"`
	Paging PagingInfo    `json:"paging"`
}
