package main

import (
	"context"
	"flag"
	"log"
	"net"
	"strings"
	"time"

	"google.golang.org/grpc"

	"talos/api/grpcserver"
	"talos/domain/orderbook"
	"talos/infra/kafka"
	"talos/infra/memory"
	"talos/infra/sequence"
	entrywal "talos/infra/wal/entry"
	exitwal "talos/infra/wal/exit"
	"talos/jobs/broadcaster"
	"talos/service"
	"talos/snapshot"
)

func main() {
	var (
		addr        = flag.String("addr", ":50051", "gRPC listen address")
		walDir      = flag.String("wal-dir", "./wal_entry", "entry WAL directory")
		outboxDir   = flag.String("outbox-dir", "./wal_exit", "exit outbox directory")
		snapDir     = flag.String("snapshot-dir", "./snapshots", "snapshot directory")
		brokers     = flag.String("brokers", "", "comma-separated Kafka brokers (empty disables publishing)")
		tradesTopic = flag.String("trades-topic", "talos.trades", "topic for trade executions")
		eventsTopic = flag.String("events-topic", "talos.events", "topic the broadcaster drains into")
	)
	flag.Parse()

	// ---------------- Entry WAL ----------------

	entryWAL, err := entrywal.Open(entrywal.Config{
		Dir:             *walDir,
		SegmentSize:     64 * 1024 * 1024,
		SegmentDuration: time.Hour,
	})
	if err != nil {
		log.Fatalf("entry WAL init failed: %v", err)
	}
	defer entryWAL.Close()

	// ---------------- Exit outbox ----------------

	outbox, err := exitwal.Open(*outboxDir)
	if err != nil {
		log.Fatalf("outbox init failed: %v", err)
	}
	defer outbox.Close()

	// ---------------- Memory ----------------

	pool := memory.NewPool(func() *orderbook.Order {
		return &orderbook.Order{}
	})
	ring := memory.NewRetireRing(1 << 18)
	reader := snapshot.NewReader()

	// ---------------- Domain + service ----------------

	book := orderbook.NewOrderBook()
	seqGen := sequence.New(entryWAL.Seq())

	var trades *kafka.Producer
	if *brokers != "" {
		trades = kafka.NewProducer(strings.Split(*brokers, ","), *tradesTopic)
		defer trades.Close()
	}

	svc := service.NewOrderService(book, pool, ring, reader, seqGen, entryWAL, outbox, trades)

	if err := svc.Recover(*walDir, *snapDir); err != nil {
		log.Fatalf("recovery failed: %v", err)
	}

	// ---------------- Background jobs ----------------

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc.StartEpochJob(ctx, 2*time.Second)
	svc.StartSweepJob(ctx, time.Second)
	svc.StartSnapshotJob(ctx, *snapDir, 5*time.Minute)

	if *brokers != "" {
		bc, err := broadcaster.New(outbox, strings.Split(*brokers, ","), *eventsTopic)
		if err != nil {
			log.Fatalf("broadcaster init failed: %v", err)
		}
		defer bc.Close()
		bc.Start(ctx)
	}

	// ---------------- gRPC ----------------

	lis, err := net.Listen("tcp", *addr)
	if err != nil {
		log.Fatalf("listen failed: %v", err)
	}

	grpcSrv := grpc.NewServer()
	grpcserver.RegisterEngineServer(grpcSrv, grpcserver.NewServer(svc))

	log.Printf("[server] engine running on %s", *addr)

	if err := grpcSrv.Serve(lis); err != nil {
		log.Fatalf("gRPC server exited: %v", err)
	}
}
