package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"

	"github.com/ac8628026/Chess-Backend/internal/client"
	"github.com/ac8628026/Chess-Backend/internal/hub"
	"github.com/ac8628026/Chess-Backend/internal/logger"
	"github.com/ac8628026/Chess-Backend/internal/session"
)

const (
	defaultPort     = "3001"
	shutdownTimeout = 5 * time.Second
)

// Instancia global del Hub
var mainHub *hub.Hub

// Contexto global
var ctx context.Context
var cancel context.CancelFunc

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Cualquier origen, igual que el CORS abierto del frontend
	},
}

// handleConnections maneja las conexiones WebSocket entrantes
func handleConnections(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Error al actualizar la conexión WebSocket", logger.Fields{
			"error": err.Error(),
			"path":  r.URL.Path,
		})
		return
	}

	c := client.NewClient(uuid.NewString(), mainHub, conn, ctx)

	// Registrar al cliente en el Hub
	mainHub.RegisterClient(c)

	// Iniciar goroutines para manejar la comunicación
	go c.ReadPump()
	go c.WritePump()

	logger.Info("Nueva conexión establecida", logger.Fields{
		"clientID": c.GetID(),
		"remote":   conn.RemoteAddr().String(),
	})
}

// roomTTLFromEnv lee el TTL de salas vacías desde ROOM_TTL_SECONDS
func roomTTLFromEnv() time.Duration {
	raw := os.Getenv("ROOM_TTL_SECONDS")
	if raw == "" {
		return hub.DefaultRoomTTL
	}

	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		logger.Warn("ROOM_TTL_SECONDS inválido, usando el valor por defecto", logger.Fields{
			"value": raw,
		})
		return hub.DefaultRoomTTL
	}
	return time.Duration(seconds) * time.Second
}

func main() {
	// El archivo .env es opcional; sin él se usan las variables del proceso
	godotenv.Load()

	logger.Initialize()

	// Crear contexto cancelable
	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()

	port := defaultPort
	if envPort := os.Getenv("PORT"); envPort != "" {
		port = envPort
	}

	// Crear e iniciar el Hub con su almacén de sesiones
	mainHub = hub.NewHub(session.NewStore(), roomTTLFromEnv())
	go mainHub.Run()

	logger.Info("Hub iniciado", nil)

	// Configurar rutas
	http.HandleFunc("/ws", handleConnections)
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Configurar servidor con opciones de cierre controlado
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      http.DefaultServeMux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Canal para señales del sistema
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	// Iniciar el servidor en una goroutine separada
	go func() {
		logger.Info("Iniciando servidor", logger.Fields{"port": port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Error al iniciar el servidor", logger.Fields{"error": err.Error()})
		}
	}()

	// Esperar señal de interrupción
	<-done
	logger.Info("Recibida señal de apagado, iniciando shutdown", nil)

	// Cancelar contexto para que todas las goroutines terminen
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	// Cerrar el hub
	mainHub.Close()

	// Cerrar servidor HTTP con timeout
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error durante el shutdown del servidor", logger.Fields{"error": err.Error()})
	}

	logger.Info("Servidor detenido correctamente", nil)
}
