// Command audiomixer runs the standalone spatial audio mixer process:
// it listens for UDP client traffic, tracks connected peers, and
// drives the fixed-cadence mix loop against them.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	audiomixer "github.com/hfmix/audiomixer"
	"github.com/hfmix/audiomixer/config"
	"github.com/hfmix/audiomixer/mixer"
	"github.com/hfmix/audiomixer/peerreg"
	"github.com/hfmix/audiomixer/registry"
	"github.com/hfmix/audiomixer/ring"
	"github.com/hfmix/audiomixer/scheduler"
	"github.com/hfmix/audiomixer/source"
	"github.com/hfmix/audiomixer/stats"
	"github.com/hfmix/audiomixer/transport"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// cliConfig holds the flags accepted by the standalone process.
type cliConfig struct {
	listenAddr   string
	configFile   string
	startupFlags string
	logLevel     string
}

func parseCLIFlags() *cliConfig {
	cfg := &cliConfig{}
	flag.StringVar(&cfg.listenAddr, "listen", ":48000", "UDP address to listen on")
	flag.StringVar(&cfg.configFile, "config", "", "optional YAML configuration file")
	flag.StringVar(&cfg.startupFlags, "startup-flags", "", "startup payload key/value string, e.g. \"--dynamicJitterBuffer\"")
	flag.StringVar(&cfg.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flag.Parse()
	return cfg
}

func main() {
	runID := uuid.New()
	cli := parseCLIFlags()

	level, err := logrus.ParseLevel(cli.logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.JSONFormatter{})

	log := logrus.WithFields(logrus.Fields{"run_id": runID.String()})

	mixerConfig := config.LoadYAMLFile(config.Default(), cli.configFile)
	mixerConfig, err = config.ApplyPayload(mixerConfig, cli.startupFlags)
	if err != nil {
		log.WithError(err).Fatal("malformed startup configuration")
	}

	udp, err := transport.NewUDPTransport(cli.listenAddr)
	if err != nil {
		log.WithError(err).Fatal("failed to open transport")
	}
	defer udp.Close()

	reg := registry.New()
	peers := peerreg.NewInMemory()
	peers.OnArrival(func(info peerreg.PeerInfo) {
		mic := source.NewMicrophone(ring.Mono, mixerConfig.DynamicJitterBuffers)
		mic.SetPose(info.Position, info.Orientation)
		reg.Enqueue(registry.AddListenerCommand(info.Peer, mic))
		log.WithFields(logrus.Fields{
			"peer": info.Peer,
			"kind": info.Kind,
		}).Info("listener joined")
	})

	clock := scheduler.NewSystemClock()
	sched := scheduler.New(reg, clock)

	var totals stats.FrameTotals
	statsEncoder := stats.DefaultEncoder{}
	sched.OnStats(func(frameIndex uint64, trailingSleepRatio, throttleRatio float64) {
		summary := stats.SummaryDocument(trailingSleepRatio, throttleRatio, totals)
		summary.Add("run_id", runID.String())
		totals.Reset()
		log.Debug(summary.String())

		jitterEntries := make(map[string]string)
		for _, listener := range reg.Iter() {
			if listener.Microphone == nil {
				continue
			}
			buf := listener.Microphone.Buffer
			jitterEntries[string(listener.Peer)] = fmt.Sprintf("margin=%d,starved=%d", buf.Margin(), buf.IsStarved())

			encoded := statsEncoder.Encode(stats.ListenerJitterStats{
				AverageJitterMargin: float32(buf.Margin()),
				StarveCount:         uint32(buf.IsStarved()),
				FramesMixed:         uint32(frameIndex),
			})
			if err := udp.Send(listener.Peer, encoded); err != nil {
				log.WithFields(logrus.Fields{"peer": listener.Peer, "error": err}).Warn("stream stats send failed")
			}
		}

		for _, doc := range stats.JitterStatsDocuments(jitterEntries) {
			log.Debug(doc.String())
		}
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutdown signal received")
		sched.Terminate()
	}()

	log.WithFields(logrus.Fields{
		"listen_addr": udp.LocalAddr().String(),
	}).Info("audiomixer started")

	for !sched.Terminated() {
		drainInbound(udp, reg, peers, log)

		sched.RunFrame(func(minAudibilityThreshold float64) {
			listeners := reg.Iter()
			for _, listener := range listeners {
				pcm := mixer.MixListener(listener, listeners, minAudibilityThreshold)
				totals.Add(uint64(len(listeners)), uint64(len(listener.Sources())))

				packet, err := transport.EncodeMixedAudio(listener.OutgoingSequence, pcm)
				if err != nil {
					log.WithError(err).Warn("failed to encode mixed audio")
					continue
				}
				listener.OutgoingSequence++
				if err := udp.Send(listener.Peer, packet); err != nil {
					log.WithFields(logrus.Fields{"peer": listener.Peer, "error": err}).Warn("send failed")
				}
			}
		})
	}

	log.Info("audiomixer stopped")
}

// drainInbound pulls every currently-queued inbound datagram this
// tick and pushes it into the originating peer's microphone buffer.
// A datagram from a peer with no registered listener is not pushed:
// it upserts the peer into peers (registering it as a new listener on
// first contact) and is dropped.
func drainInbound(t *transport.UDPTransport, reg *registry.Registry, peers *peerreg.InMemory, log *logrus.Entry) {
	for {
		payload, peer, ok := t.Recv()
		if !ok {
			return
		}

		_, pcm, err := transport.DecodeUpstreamAudio(payload)
		if err != nil {
			log.WithFields(logrus.Fields{"peer": peer, "error": err}).Debug("dropped malformed inbound packet")
			continue
		}

		listener, err := reg.Get(peer)
		if errors.Is(err, audiomixer.ErrListenerNotFound) {
			peers.Upsert(peerreg.PeerInfo{Peer: peer, Kind: "microphone"})
			continue
		}

		if listener.Microphone != nil {
			listener.Microphone.Buffer.Push(pcm)
		}
	}
}
