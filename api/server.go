package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/citygrid-lab/gridtraffic-sim/entity"
)

// Server 对外HTTP服务
// 功能：向外部协作方暴露仿真状态快照与网格编辑命令入口
// 说明：编辑命令只入队，不直接修改仿真状态，由网格管理器在
// 下一个tick开始时统一应用
type Server struct {
	ctx entity.ITaskContext
}

// NewServer 创建HTTP服务
func NewServer(ctx entity.ITaskContext) *Server {
	return &Server{
		ctx: ctx,
	}
}

func (s *Server) homeHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("gridtraffic simulation server"))
}

// ServeMux 构建路由
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/snapshot", s.snapshotHandler)
	mux.HandleFunc("/obstacle", s.obstacleHandler)
	mux.HandleFunc("/", s.homeHandler)
	return mux
}

// Snapshot 整体仿真快照
type Snapshot struct {
	Step        int32                       `json:"step"`
	Time        float64                     `json:"time"`
	Grid        [][]entity.CellKind         `json:"grid"`
	Lights      []entity.LightSnapshot      `json:"lights"`
	Crossings   []entity.CrossingSnapshot   `json:"crossings"`
	Pedestrians []entity.PedestrianSnapshot `json:"pedestrians"`
	Vehicles    []entity.VehicleSnapshot    `json:"vehicles"`
}

// snapshotHandler 状态快照查询
func (s *Server) snapshotHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// 读锁与tick循环的写锁互斥，快照反映某个完整tick边界的状态；
	// 各Snapshot方法返回副本，编码在锁外进行
	mtx := s.ctx.StateMtx()
	mtx.RLock()
	snapshot := Snapshot{
		Step:        s.ctx.Clock().InternalStep,
		Time:        s.ctx.Clock().T,
		Grid:        s.ctx.GridManager().Snapshot(),
		Lights:      s.ctx.LightManager().Snapshot(),
		Crossings:   s.ctx.CrossingManager().Crossings(),
		Pedestrians: s.ctx.CrossingManager().Pedestrians(),
		Vehicles:    s.ctx.VehicleManager().Snapshot(),
	}
	mtx.RUnlock()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snapshot); err != nil {
		log.Errorf("snapshot encode err: %v", err)
	}
}

// obstacleRequest 障碍编辑请求体
type obstacleRequest struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

// obstacleHandler 手动障碍编辑
// 说明：POST放置手动障碍，DELETE移除手动障碍。接口契约是
// fire-and-forget：命令在入队时只校验坐标范围，是否真正生效由
// 网格管理器在下一个tick应用时按放置/移除规则裁定，结果通过
// 后续的/snapshot中对应单元格的分类观察
func (s *Server) obstacleHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req obstacleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	pos := entity.CellPos{X: req.X, Y: req.Y}
	mtx := s.ctx.StateMtx()
	mtx.RLock()
	inBounds := s.ctx.GridManager().InBounds(pos)
	mtx.RUnlock()
	if !inBounds {
		http.Error(w, "Position out of bounds", http.StatusBadRequest)
		return
	}

	s.ctx.GridManager().EnqueueEdit(entity.GridEdit{
		Pos:    pos,
		Remove: r.Method == http.MethodDelete,
	})
	io.WriteString(w, "Edit enqueued")
}
