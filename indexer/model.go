package indexer

// sqlite models

type Height struct {
	Id     uint64 `gorm:"primary_key" json:"id"`
	Height uint64 `json:"height"`
}

type Member struct {
	Address      string `gorm:"primary_key" json:"address"`
	Weight       uint64 `json:"weight"`
	Payment      string `json:"payment"`
	JoinedHeight uint64 `json:"joined_height"`
}

type Proposal struct {
	Id             string `gorm:"primary_key" json:"id"`
	Proposer       string `json:"proposer"`
	Description    string `json:"description"`
	Actions        uint64 `json:"actions"`
	StartDate      uint64 `json:"start_date"`
	ForWeight      uint64 `json:"for_weight"`
	AgainstWeight  uint64 `json:"against_weight"`
	AbstainWeight  uint64 `json:"abstain_weight"`
	Executed       bool   `json:"executed"`
	NewHeight      uint64 `json:"new_height"`
	ExecutedHeight uint64 `json:"executed_height"`
}

type Vote struct {
	Id       uint64 `gorm:"primary_key" json:"id"`
	Proposal string `gorm:"index" json:"proposal"`
	Voter    string `gorm:"index" json:"voter"`
	Choice   uint8  `json:"choice"`
	Weight   uint64 `json:"weight"`
	Relayer  string `json:"relayer"`
	Height   uint64 `json:"height"`
}

type Execution struct {
	Id       uint64 `gorm:"primary_key" json:"id"`
	Proposal string `gorm:"index" json:"proposal"`
	Executor string `json:"executor"`
	Actions  uint64 `json:"actions"`
	Reward   string `json:"reward"`
	Height   uint64 `json:"height"`
}
