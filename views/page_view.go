package views

import (
	"log"
	"net/http"

	"github.com/GrainArc/DropMap/models"
	"github.com/GrainArc/DropMap/services"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/paulmach/orb/geojson"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// PageController 地图页面及其查询接口
type PageController struct {
	items      *services.ItemService
	reconciler *services.Reconciler
	sessions   *services.SessionStore
}

// NewPageController 创建控制器
func NewPageController(items *services.ItemService, sessions *services.SessionStore) *PageController {
	return &PageController{
		items:      items,
		reconciler: services.NewReconciler(items),
		sessions:   sessions,
	}
}

// Index 页面骨架，内容由前端调用 /api/pass 获取
func (h *PageController) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Title": "落とし物投稿・検索サイト (Lost & Found Map)",
	})
}

// Pass 处理一次交互并返回渲染内容
func (h *PageController) Pass(c *gin.Context) {
	var in services.Interaction
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.run(c, sessionID(c), in))
}

func (h *PageController) run(c *gin.Context, id string, in services.Interaction) services.Frame {
	if in.Kind == "" {
		in.Kind = services.EventLoad
	}
	var frame services.Frame
	h.sessions.Update(id, func(state models.ViewState) models.ViewState {
		state, frame = h.reconciler.Run(c.Request.Context(), state, in)
		return state
	})
	return frame
}

// Socket WebSocket 通道：每条消息是一次交互，每次回复一个 Frame
func (h *PageController) Socket(c *gin.Context) {
	id := sessionID(c)
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade to websocket: %v", err)
		return
	}
	defer conn.Close()

	for {
		var in services.Interaction
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("websocket read error: %v", err)
			}
			return
		}
		if err := conn.WriteJSON(h.run(c, id, in)); err != nil {
			log.Printf("websocket write error: %v", err)
			return
		}
	}
}

// SearchItems GET /api/items?q=
func (h *PageController) SearchItems(c *gin.Context) {
	items, notice := h.items.Search(c.Request.Context(), c.Query("q"))
	c.JSON(http.StatusOK, gin.H{
		"items":  items,
		"notice": notice,
	})
}

// ItemsGeoJSON GET /api/items.geojson?q=
// 查询失败时返回 503，提示放在 FeatureCollection 的 notice 成员里
func (h *PageController) ItemsGeoJSON(c *gin.Context) {
	items, notice := h.items.Search(c.Request.Context(), c.Query("q"))
	fc := services.BuildMarkers(items)
	if notice != nil {
		fc.ExtraMembers = geojson.Properties{"notice": notice}
		c.JSON(http.StatusServiceUnavailable, fc)
		return
	}
	c.JSON(http.StatusOK, fc)
}

// SubmitItem POST /api/items
func (h *PageController) SubmitItem(c *gin.Context) {
	var in models.NewItem
	if err := c.ShouldBind(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ok, notice := h.items.Submit(c.Request.Context(), in)
	status := http.StatusCreated
	switch {
	case ok:
	case notice != nil && notice.Level == services.LevelWarning:
		status = http.StatusUnprocessableEntity
	default:
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"ok":     ok,
		"notice": notice,
	})
}

// Health 存活检查
func (h *PageController) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
