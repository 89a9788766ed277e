package indexer

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 20
	maxPageSize     = 1000
)

type Service struct {
	engine     *gin.Engine
	indexer    *ChainIndexer
	listenAddr string
}

func NewService(ListenAddr string, indexer *ChainIndexer) *Service {
	r := gin.Default()
	s := &Service{
		engine:     r,
		indexer:    indexer,
		listenAddr: ListenAddr,
	}
	s.engine.POST("/getMembers", s.handleGetMembers)
	s.engine.POST("/getProposals", s.handleGetProposals)
	s.engine.POST("/getVotes", s.handleGetVotes)
	s.engine.POST("/getExecutions", s.handleGetExecutions)
	s.engine.GET("/height", s.handleGetHeight)
	return s
}

func (s *Service) Handler() http.Handler {
	return s.engine
}

func (s *Service) Start() error {
	return s.engine.Run(s.listenAddr)
}

type PageReq struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

func (r *PageReq) normalize() {
	if r.Page < 0 {
		r.Page = 0
	}
	if r.PageSize <= 0 {
		r.PageSize = defaultPageSize
	}
	if r.PageSize > maxPageSize {
		r.PageSize = maxPageSize
	}
}

type GetMembersResponse struct {
	Members []Member `json:"members"`
	Total   uint64   `json:"total"`
}

func (s *Service) handleGetMembers(c *gin.Context) {
	var requestData PageReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	requestData.normalize()
	members, total, err := s.indexer.getMembers(requestData.Page, requestData.PageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if members == nil {
		members = make([]Member, 0)
	}
	c.JSON(http.StatusOK, GetMembersResponse{Members: members, Total: total})
}

type GetProposalsReq struct {
	PageReq
	ProposalId string `json:"proposalId"`
	Proposer   string `json:"proposer"`
}

type ProposalInfo struct {
	Proposal Proposal `json:"proposal"`
	Votes    []Vote   `json:"votes"`
}

type GetProposalsResponse struct {
	Proposals []ProposalInfo `json:"proposals"`
	Total     uint64         `json:"total"`
}

func (s *Service) handleGetProposals(c *gin.Context) {
	var response GetProposalsResponse
	response.Proposals = make([]ProposalInfo, 0)
	var requestData GetProposalsReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	requestData.normalize()

	if requestData.ProposalId != "" {
		proposal, err := s.indexer.getProposalById(common.HexToHash(requestData.ProposalId).Hex())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if proposal == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "proposal not found"})
			return
		}
		votes, err := s.indexer.getVotesByProposal(proposal.Id, 0, maxPageSize)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		response.Proposals = append(response.Proposals, ProposalInfo{Proposal: *proposal, Votes: votes})
		response.Total = 1
		c.JSON(http.StatusOK, response)
		return
	}

	var (
		proposals []Proposal
		total     uint64
		err       error
	)
	if requestData.Proposer != "" {
		proposer := common.HexToAddress(requestData.Proposer).Hex()
		proposals, total, err = s.indexer.getProposalsByProposer(proposer, requestData.Page, requestData.PageSize)
	} else {
		proposals, total, err = s.indexer.getProposals(requestData.Page, requestData.PageSize)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	response.Total = total
	for _, p := range proposals {
		votes, err := s.indexer.getVotesByProposal(p.Id, 0, maxPageSize)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		response.Proposals = append(response.Proposals, ProposalInfo{Proposal: p, Votes: votes})
	}
	c.JSON(http.StatusOK, response)
}

type GetVotesReq struct {
	PageReq
	ProposalId string `json:"proposalId"`
	Voter      string `json:"voter"`
}

type GetVotesResponse struct {
	Votes []Vote `json:"votes"`
}

func (s *Service) handleGetVotes(c *gin.Context) {
	var requestData GetVotesReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	requestData.normalize()
	var (
		votes []Vote
		err   error
	)
	switch {
	case requestData.ProposalId != "":
		votes, err = s.indexer.getVotesByProposal(common.HexToHash(requestData.ProposalId).Hex(), requestData.Page, requestData.PageSize)
	case requestData.Voter != "":
		votes, err = s.indexer.getVotesByVoter(common.HexToAddress(requestData.Voter).Hex(), requestData.Page, requestData.PageSize)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "proposalId or voter required"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if votes == nil {
		votes = make([]Vote, 0)
	}
	c.JSON(http.StatusOK, GetVotesResponse{Votes: votes})
}

type GetExecutionsResponse struct {
	Executions []Execution `json:"executions"`
}

func (s *Service) handleGetExecutions(c *gin.Context) {
	var requestData PageReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	requestData.normalize()
	executions, err := s.indexer.getExecutions(requestData.Page, requestData.PageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if executions == nil {
		executions = make([]Execution, 0)
	}
	c.JSON(http.StatusOK, GetExecutionsResponse{Executions: executions})
}

func (s *Service) handleGetHeight(c *gin.Context) {
	height, err := s.indexer.getIndexedHeight()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"height": height})
}
